// Package mapper resolves Go struct fields to MAML object keys.
package mapper

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Field describes an exported struct field reachable from a struct type,
// possibly through embedded structs.
type Field struct {
	Name      string // object key: the tag name, or the Go field name
	Index     []int
	Tagged    bool
	OmitEmpty bool

	depth int
}

// Fields is the resolved field set of a struct type.
type Fields struct {
	// List holds the visible fields in declaration order.
	List []Field

	exact  map[string]int
	folded map[string]int
}

// Lookup finds the field for an object key. An exact match on the field
// name wins over a case-insensitive one.
func (fs *Fields) Lookup(key string) (*Field, bool) {
	if i, ok := fs.exact[key]; ok {
		return &fs.List[i], true
	}
	if i, ok := fs.folded[strings.ToLower(key)]; ok {
		return &fs.List[i], true
	}
	return nil, false
}

// fieldCache caches the resolved fields of struct types.
var fieldCache sync.Map // map[reflect.Type]*Fields

// CachedFields returns the fields of struct type t. Fields of embedded
// structs are promoted; when names collide the shallower field wins, and
// among fields at the same depth the one declared first wins. Unexported
// fields and fields tagged with "maml:-" are skipped.
func CachedFields(t reflect.Type) *Fields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*Fields)
	}

	var all []Field
	walk(t, nil, map[reflect.Type]bool{t: true}, &all)

	// Stable sort keeps declaration order among fields of equal depth.
	slices.SortStableFunc(all, func(a, b Field) int { return a.depth - b.depth })

	fs := &Fields{exact: make(map[string]int), folded: make(map[string]int)}
	for _, f := range all {
		if _, taken := fs.exact[f.Name]; taken {
			continue
		}
		fs.exact[f.Name] = len(fs.List)
		fs.List = append(fs.List, f)
	}
	// Restore declaration order for encoding.
	slices.SortStableFunc(fs.List, func(a, b Field) int { return slices.Compare(a.Index, b.Index) })
	for i, f := range fs.List {
		fs.exact[f.Name] = i
		lower := strings.ToLower(f.Name)
		if j, ok := fs.folded[lower]; !ok || f.depth < fs.List[j].depth {
			fs.folded[lower] = i
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fs)
	return actual.(*Fields)
}

func walk(t reflect.Type, index []int, visiting map[reflect.Type]bool, out *[]Field) {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get("maml")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		idx := append(slices.Clip(index), i)

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if !visiting[ft] {
					visiting[ft] = true
					walk(ft, idx, visiting, out)
					delete(visiting, ft)
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		f := Field{Name: sf.Name, Index: idx, depth: len(index)}
		if name != "" {
			f.Name = name
			f.Tagged = true
		}
		for opts != "" {
			var opt string
			opt, opts, _ = strings.Cut(opts, ",")
			if strings.TrimSpace(opt) == "omitempty" {
				f.OmitEmpty = true
			}
		}
		*out = append(*out, f)
	}
}

// Get returns the field of struct value v, or false if the field sits
// behind a nil embedded pointer.
func (f *Field) Get(v reflect.Value) (reflect.Value, bool) {
	fv, err := v.FieldByIndexErr(f.Index)
	return fv, err == nil
}

// Settable returns the field of struct value v for assignment, allocating
// nil embedded pointers on the way.
func (f *Field) Settable(v reflect.Value) (reflect.Value, error) {
	for i, x := range f.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("maml: cannot set embedded pointer to unexported struct %s", v.Type().Elem())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

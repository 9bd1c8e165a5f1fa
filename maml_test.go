package maml_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mamlkit/go-maml"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	Host  string
	Ports []int
}

func TestMarshal_Indent(t *testing.T) {
	v := upstream{Host: "cache", Ports: []int{6379, 6380}}

	tests := []struct {
		name string
		opts []maml.Option
		want string
	}{
		{"default", nil, "{\n  Host: \"cache\"\n  Ports: [\n    6379\n    6380\n  ]\n}"},
		{"compact", []maml.Option{maml.Indent(0)}, `{Host:"cache",Ports:[6379,6380]}`},
		{"four spaces", []maml.Option{maml.Indent(4)}, "{\n    Host: \"cache\"\n    Ports: [\n        6379\n        6380\n    ]\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := maml.Marshal(v, tt.opts...)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(b))
		})
	}

	_, err := maml.Marshal(v, maml.Indent(-1))
	require.EqualError(t, err, "maml: indent spaces cannot be negative")
}

// timeout marshals itself as an object with the duration in milliseconds.
type timeout time.Duration

func (d timeout) MarshalMAML() ([]byte, error) {
	return fmt.Appendf(nil, `{ "ms": %d }`, time.Duration(d).Milliseconds()), nil
}

// label has a pointer-receiver marshaler.
type label struct{ Text string }

func (l *label) MarshalMAML() ([]byte, error) {
	return []byte(`"#` + l.Text + `"`), nil
}

type marshalFunc func() ([]byte, error)

func (f marshalFunc) MarshalMAML() ([]byte, error) { return f() }

func TestMarshal_Marshaler(t *testing.T) {
	b, err := maml.Marshal(timeout(1500*time.Millisecond), maml.Indent(0))
	require.NoError(t, err)
	require.Equal(t, `{ms:1500}`, string(b))

	b, err = maml.Marshal(&label{Text: "prod"})
	require.NoError(t, err)
	require.Equal(t, `"#prod"`, string(b))

	// Addressable values reach pointer-receiver methods.
	b, err = maml.Marshal(struct{ L label }{label{Text: "dev"}}, maml.Indent(0))
	require.NoError(t, err)
	require.Equal(t, `{L:"#dev"}`, string(b))

	b, err = maml.Marshal(marshalFunc(func() ([]byte, error) { return nil, nil }))
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	_, err = maml.Marshal(marshalFunc(func() ([]byte, error) { return nil, errors.New("disk full") }))
	require.ErrorContains(t, err, "disk full")

	_, err = maml.Marshal(marshalFunc(func() ([]byte, error) { return []byte(`{ key: "open }`), nil }))
	require.ErrorContains(t, err, "invalid MAML output")
}

type ring struct {
	Next *ring
}

func TestMarshal_Cycles(t *testing.T) {
	var r ring
	r.Next = &r

	m := map[string]any{}
	m["self"] = m

	s := make([]any, 1)
	s[0] = s

	for name, v := range map[string]any{"pointer": r, "map": m, "slice": s} {
		t.Run(name, func(t *testing.T) {
			_, err := maml.Marshal(v)
			require.ErrorContains(t, err, "encountered a cycle")
		})
	}

	t.Run("shared pointer is not a cycle", func(t *testing.T) {
		shared := &upstream{Host: "db"}
		b, err := maml.Marshal(struct{ Primary, Replica *upstream }{shared, shared}, maml.Indent(0))
		require.NoError(t, err)
		require.Equal(t, `{Primary:{Host:"db",Ports:null},Replica:{Host:"db",Ports:null}}`, string(b))
	})
}

func TestMarshalUnmarshal_Collections(t *testing.T) {
	marshal := []struct {
		in   any
		want string
	}{
		{[]int(nil), "null"},
		{[]int{}, "[]"},
		{map[string]int(nil), "null"},
		{map[string]int{}, "{}"},
	}
	for _, tt := range marshal {
		b, err := maml.Marshal(tt.in, maml.Indent(0))
		require.NoError(t, err)
		require.Equal(t, tt.want, string(b), "%#v", tt.in)
	}

	s := []int{1, 2, 3}
	require.NoError(t, maml.Unmarshal([]byte("null"), &s))
	require.Nil(t, s)

	s = []int{1, 2, 3}
	require.NoError(t, maml.Unmarshal([]byte("[]"), &s))
	require.NotNil(t, s)
	require.Empty(t, s)

	m := map[string]int{"a": 1}
	require.NoError(t, maml.Unmarshal([]byte("null"), &m))
	require.Nil(t, m)

	m = map[string]int{"a": 1}
	require.NoError(t, maml.Unmarshal([]byte("{}"), &m))
	require.NotNil(t, m)
	require.Empty(t, m)
}

// retryPolicy decodes itself from an object with an "attempts" key.
type retryPolicy struct {
	Attempts int
}

func (p *retryPolicy) UnmarshalMAML(data []byte) error {
	var raw struct {
		N int `maml:"attempts"`
	}
	if err := maml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.N < 0 {
		return errors.New("attempts cannot be negative")
	}
	p.Attempts = raw.N
	return nil
}

// hostname normalises its text form.
type hostname string

func (h *hostname) UnmarshalText(text []byte) error {
	*h = hostname(strings.ToLower(string(text)))
	return nil
}

func TestUnmarshal_Unmarshaler(t *testing.T) {
	var p retryPolicy
	require.NoError(t, maml.Unmarshal([]byte(`{ attempts: 3 }`), &p))
	require.Equal(t, 3, p.Attempts)

	err := maml.Unmarshal([]byte(`{ attempts: -1 }`), &p)
	var ue *maml.UnmarshalerError
	require.ErrorAs(t, err, &ue)
	require.EqualError(t, err, "maml: error calling unmarshaler for type *maml_test.retryPolicy: attempts cannot be negative")

	var h hostname
	require.NoError(t, maml.Unmarshal([]byte(`"Cache.Internal"`), &h))
	require.Equal(t, hostname("cache.internal"), h)

	// Text unmarshalers only see strings.
	err = maml.Unmarshal([]byte(`8080`), &h)
	require.EqualError(t, err, "maml: cannot unmarshal integer into Go value of type maml_test.hostname")
}

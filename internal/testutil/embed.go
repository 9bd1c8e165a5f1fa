// Package testutil gives tests access to the shared MAML documents in
// testdata.
package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed testdata
var testdataFS embed.FS

// ReadTestData reads and returns the content of an embedded test file.
func ReadTestData(name string) ([]byte, error) {
	data, err := fs.ReadFile(testdataFS, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file '%s': %w", name, err)
	}
	return data, nil
}

// Documents returns the base names of the embedded .maml files in sorted
// order.
func Documents() ([]string, error) {
	entries, err := fs.ReadDir(testdataFS, "testdata")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".maml") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

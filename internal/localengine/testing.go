package localengine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteModel writes a model file with the given parameters (name -> expression
// with units taken from the expression) and returns its path. Intended for tests
// and fixtures.
func WriteModel(dir, name string, params [][2]string) (string, error) {
	var b strings.Builder
	for _, p := range params {
		units := ""
		if f := strings.Fields(p[1]); len(f) == 2 {
			units = f[1]
		}
		fmt.Fprintf(&b, "[[parameters]]\nname = %q\nexpression = %q\n", p[0], p[1])
		if units != "" {
			fmt.Fprintf(&b, "units = %q\n", units)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"paramexport/pkg/types"
)

// LoadFile reads a change set from a JSON object file.
func LoadFile(path string) (types.ChangeSet, error) {
	if path == "" {
		return nil, fmt.Errorf("empty change set path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read change set: %w", err)
	}
	cs, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}

// Decode reads a JSON object of name -> expression pairs, keeping the source
// order. A repeated name keeps its first position and takes the last value.
func Decode(r io.Reader) (types.ChangeSet, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode change set: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("decode change set: expected a JSON object")
	}
	var cs types.ChangeSet
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode change set: %w", err)
		}
		name := tok.(string)
		if name == "" {
			return nil, errors.New("decode change set: empty parameter name")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode change set: parameter %s: %w", name, err)
		}
		var expr string
		if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &expr) != nil {
			return nil, fmt.Errorf("decode change set: parameter %s: expression must be a string", name)
		}
		if i, ok := pos[name]; ok {
			cs[i].Expression = expr
			continue
		}
		pos[name] = len(cs)
		cs = append(cs, types.ParameterChange{Name: name, Expression: expr})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode change set: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode change set: trailing data after object")
	}
	return cs, nil
}

// SPDX-License-Identifier: MIT

package caltable

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Encode writes t as YAML.
func (t *Table) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("Table.Encode: %w", err)
	}

	return enc.Close()
}

// Decode reads and validates a YAML table. Unknown keys are rejected.
func Decode(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("caltable.Decode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// Save writes t to path.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Table.Save: %w", err)
	}
	if err = t.Encode(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Load reads a table from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("caltable.Load: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

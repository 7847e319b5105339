package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LineError reports a bad entry in a config file. Loading continues past it.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// IsYAML reports whether path is loaded as YAML rather than key=value text.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile applies every entry of the file at path. A missing or unreadable
// file is returned as is; bad entries are collected into a joined list of
// *LineError and never stop the load.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if IsYAML(path) {
		return r.loadYAML(path, data)
	}
	return r.loadText(path, data)
}

func (r *Registry) loadText(path string, data []byte) error {
	var errs []error
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for n := 1; sc.Scan(); n++ {
		if _, err := r.ParseLine(sc.Text()); err != nil && !errors.Is(err, ErrQuery) {
			errs = append(errs, &LineError{File: path, Line: n, Err: unwrapKey(err)})
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, fmt.Errorf("read %s: %w", path, err))
	}
	return errors.Join(errs...)
}

// loadYAML expects a single flat mapping of scalars. Positions come from the
// node tree so problems point at the offending line.
func (r *Registry) loadYAML(path string, data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return &LineError{File: path, Line: root.Line, Err: ErrInvalidKey}
	}
	var errs []error
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			errs = append(errs, &LineError{File: path, Line: v.Line, Err: ErrUnknownType})
			continue
		}
		if err := r.Set(k.Value, v.Value); err != nil {
			errs = append(errs, &LineError{File: path, Line: k.Line, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Persist appends the current value of name to a key=value config file,
// creating the file if needed.
func (r *Registry) Persist(path, name string) error {
	val, err := r.Get(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if IsYAML(path) {
		out, err := yaml.Marshal(map[string]string{name: val})
		if err == nil {
			_, err = f.Write(out)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}
	if _, err := fmt.Fprintf(f, "%s = %s\n", name, val); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// unwrapKey strips the "key: " prefix ParseLine adds, since a LineError
// already says where the problem is.
func unwrapKey(err error) error {
	for _, sentinel := range []error{ErrInvalidKey, ErrNotInteger, ErrNotReal, ErrNotBoolean, ErrUnknownType} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

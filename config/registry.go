// Package config binds named tunables to Go fields and loads them from
// key=value or YAML files.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Type is the value type of a registered variable.
type Type uint8

const (
	Short Type = iota // uint16
	Int
	Double
	Bool
	String
)

var (
	ErrInvalidKey  = errors.New("invalid key")
	ErrNotInteger  = errors.New("must be integer")
	ErrNotReal     = errors.New("must be a real number")
	ErrNotBoolean  = errors.New("must be true|false")
	ErrUnknownType = errors.New("invalid type specified for variable")

	// ErrQuery is returned by ParseLine for a key with no value: nothing was
	// set and the current value is returned instead.
	ErrQuery = errors.New("query")
)

var (
	intRegex   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	realRegex  = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	trueRegex  = regexp.MustCompile(`^(true|1)$`)
	falseRegex = regexp.MustCompile(`^(false|0)$`)
)

// Var is one registered variable.
type Var struct {
	Type Type
	ptr  any
}

// Registry maps names to variables. It is not safe for concurrent use.
type Registry struct {
	vars map[string]Var
}

func NewRegistry() *Registry {
	return &Registry{vars: make(map[string]Var)}
}

func (r *Registry) ShortVar(p *uint16, name string)   { r.vars[name] = Var{Short, p} }
func (r *Registry) IntVar(p *int, name string)        { r.vars[name] = Var{Int, p} }
func (r *Registry) DoubleVar(p *float64, name string) { r.vars[name] = Var{Double, p} }
func (r *Registry) BoolVar(p *bool, name string)      { r.vars[name] = Var{Bool, p} }
func (r *Registry) StringVar(p *string, name string)  { r.vars[name] = Var{String, p} }

// Get formats the current value of name.
func (r *Registry) Get(name string) (string, error) {
	v, ok := r.vars[name]
	if !ok {
		return "", ErrInvalidKey
	}
	switch p := v.ptr.(type) {
	case *uint16:
		return strconv.FormatUint(uint64(*p), 10), nil
	case *int:
		return strconv.Itoa(*p), nil
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64), nil
	case *bool:
		return strconv.FormatBool(*p), nil
	case *string:
		return *p, nil
	}
	return "", ErrUnknownType
}

// Set parses value according to name's type and stores it. On error the
// variable keeps its old value.
func (r *Registry) Set(name, value string) error {
	v, ok := r.vars[name]
	if !ok {
		return ErrInvalidKey
	}
	switch p := v.ptr.(type) {
	case *uint16:
		if !intRegex.MatchString(value) {
			return ErrNotInteger
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return ErrNotInteger
		}
		*p = uint16(n)
	case *int:
		if !intRegex.MatchString(value) {
			return ErrNotInteger
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return ErrNotInteger
		}
		*p = n
	case *float64:
		if !realRegex.MatchString(value) {
			return ErrNotReal
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ErrNotReal
		}
		*p = f
	case *bool:
		t := trueRegex.MatchString(value)
		if !t && !falseRegex.MatchString(value) {
			return ErrNotBoolean
		}
		*p = t
	case *string:
		*p = value
	default:
		return ErrUnknownType
	}
	return nil
}

// ParseLine applies one "key = value" line. Spaces are ignored and '#'
// starts a comment. Blank lines are accepted. A key with no value is a
// query: the current value is returned with ErrQuery. On success the new
// value is returned.
func (r *Registry) ParseLine(line string) (string, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.Map(func(c rune) rune {
		if c == ' ' || c == '\n' || c == '\r' {
			return -1
		}
		return c
	}, line)

	key, value, _ := strings.Cut(line, "=")
	// every '=' after the first is dropped
	value = strings.ReplaceAll(value, "=", "")
	if key == "" {
		if value != "" {
			return "", ErrInvalidKey
		}
		return "", nil
	}
	if _, ok := r.vars[key]; !ok {
		return "", ErrInvalidKey
	}
	if value == "" {
		cur, err := r.Get(key)
		if err != nil {
			return "", err
		}
		return cur, ErrQuery
	}
	if err := r.Set(key, value); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return r.Get(key)
}

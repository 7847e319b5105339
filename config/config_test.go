package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestRegistry() (*Settings, *Registry) {
	s := Default()
	reg := NewRegistry()
	s.Bind(reg)
	return s, reg
}

func TestParseLineSetsTypedValues(t *testing.T) {
	s, reg := newTestRegistry()

	cases := []struct {
		line string
		want string
	}{
		{"port = 7323", "7323"},
		{"  G=2.5   # stronger gravity", "2.5"},
		{"debug = 1", "true"},
		{"name = bob", "bob"},
		{"planet_count = -3", "-3"},
		{"friction = .5e-3", "0.0005"},
	}
	for _, c := range cases {
		got, err := reg.ParseLine(c.line)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.line, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: expected %q, got %q", c.line, c.want, got)
		}
	}
	if s.Port != 7323 || s.Physics.G != 2.5 || !s.Debug || s.Name != "bob" || s.Physics.PlanetCount != -3 {
		t.Errorf("settings not updated: %+v", s)
	}
}

func TestParseLineErrors(t *testing.T) {
	s, reg := newTestRegistry()
	s.Port = 1

	cases := []struct {
		line string
		want error
	}{
		{"port = 12a", ErrNotInteger},
		{"G = abc", ErrNotReal},
		{"G = 1.2.3", ErrNotReal},
		{"debug = yes", ErrNotBoolean},
		{"nope = 1", ErrInvalidKey},
		{"= 5", ErrInvalidKey},
	}
	for _, c := range cases {
		if _, err := reg.ParseLine(c.line); !errors.Is(err, c.want) {
			t.Errorf("%q: expected %v, got %v", c.line, c.want, err)
		}
	}
	if s.Port != 1 {
		t.Errorf("failed set must not change the value, port=%d", s.Port)
	}
}

func TestParseLineBlankAndComment(t *testing.T) {
	_, reg := newTestRegistry()
	for _, line := range []string{"", "   ", "# just a comment", "#port = 5"} {
		if _, err := reg.ParseLine(line); err != nil {
			t.Errorf("%q: expected no error, got %v", line, err)
		}
	}
}

func TestParseLineQuery(t *testing.T) {
	s, reg := newTestRegistry()
	s.Physics.Restitution = 0.75
	got, err := reg.ParseLine("collide_restitution")
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
	if got != "0.75" {
		t.Errorf("expected 0.75, got %q", got)
	}
}

func TestShortWraps(t *testing.T) {
	s, reg := newTestRegistry()
	if err := reg.Set("port", "65537"); err != nil {
		t.Fatal(err)
	}
	if s.Port != 1 {
		t.Errorf("expected 65537 to wrap to 1, got %d", s.Port)
	}
}

func TestLoadTextFileCollectsLineErrors(t *testing.T) {
	s, reg := newTestRegistry()
	path := filepath.Join(t.TempDir(), "config.txt")
	body := "port = 4000\nG = bad\n\nname = ann\nbogus = 1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	err := reg.LoadFile(path)

	if s.Port != 4000 || s.Name != "ann" {
		t.Errorf("good lines should still apply: port=%d name=%q", s.Port, s.Name)
	}
	if !errors.Is(err, ErrNotReal) || !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected both line errors, got %v", err)
	}
	var le *LineError
	if !errors.As(err, &le) || le.Line != 2 || le.File != path {
		t.Errorf("expected first error at %s:2, got %+v", path, le)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	s, reg := newTestRegistry()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: 9000\ncollide_restitution: 0.25\ndebug: true\nname: zed\nsync_spacing: nope\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	err := reg.LoadFile(path)

	if s.Port != 9000 || s.Physics.Restitution != 0.25 || !s.Debug || s.Name != "zed" {
		t.Errorf("yaml not applied: %+v", s)
	}
	var le *LineError
	if !errors.As(err, &le) || le.Line != 5 || !errors.Is(err, ErrNotReal) {
		t.Errorf("expected a real-number error on line 5, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if s.TickRate != 60 {
		t.Errorf("expected defaults, got tick rate %d", s.TickRate)
	}
}

func TestPersistAppends(t *testing.T) {
	for _, name := range []string{"config.txt", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			s, reg := newTestRegistry()
			path := filepath.Join(t.TempDir(), name)
			s.Port = 5555
			s.Name = "kim"
			if err := reg.Persist(path, "port"); err != nil {
				t.Fatal(err)
			}
			if err := reg.Persist(path, "name"); err != nil {
				t.Fatal(err)
			}

			fresh, reg2 := newTestRegistry()
			if err := reg2.LoadFile(path); err != nil {
				t.Fatalf("reload: %v", err)
			}
			if fresh.Port != 5555 || fresh.Name != "kim" {
				t.Errorf("expected persisted values, got port=%d name=%q", fresh.Port, fresh.Name)
			}
		})
	}
}

func TestWatchReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte("port = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	other := filepath.Join(filepath.Dir(path), "other.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("port = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events:
		if filepath.Base(got) != "config.txt" {
			t.Errorf("expected config.txt, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}
}

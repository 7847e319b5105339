package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthLoginAndValidate(t *testing.T) {
	a, err := NewAuth("hunter2", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Login("wrong", "1.2.3.4"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("expected ErrBadPassword, got %v", err)
	}
	token, err := a.Login("hunter2", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Validate(token); err != nil {
		t.Errorf("fresh token should validate: %v", err)
	}

	other, _ := NewAuth("hunter2", "")
	if other.Validate(token) == nil {
		t.Error("a token signed with another secret must not validate")
	}
}

func TestAuthDisabledWithoutPassword(t *testing.T) {
	a, err := NewAuth("", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if a.Enabled() {
		t.Error("expected disabled")
	}
	if _, err := a.Login("", "ip"); !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("expected ErrAdminDisabled, got %v", err)
	}
}

func TestAuthLoginRateLimit(t *testing.T) {
	a, _ := NewAuth("pw", "s")
	var last error
	for i := 0; i <= maxLoginAttempts; i++ {
		_, last = a.Login("nope", "9.9.9.9")
	}
	if !errors.Is(last, ErrTooManyLogins) {
		t.Errorf("expected rate limit after %d attempts, got %v", maxLoginAttempts, last)
	}
	if _, err := a.Login("pw", "8.8.8.8"); err != nil {
		t.Errorf("other addresses are unaffected: %v", err)
	}
}

func TestRequireBearer(t *testing.T) {
	a, _ := NewAuth("pw", "s")
	token, _ := a.Login("pw", "ip")
	h := a.Require(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, c := range []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer junk", http.StatusUnauthorized},
		{token, http.StatusUnauthorized},
		{"Bearer " + token, http.StatusTeapot},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/count", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != c.want {
			t.Errorf("header %q: expected %d, got %d", c.header, c.want, rec.Code)
		}
	}
}

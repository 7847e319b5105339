package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenExpiry      = 12 * time.Hour
	bcryptCost       = 10
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	adminSubject     = "admin"
)

var (
	ErrAdminDisabled = errors.New("admin access disabled")
	ErrBadPassword   = errors.New("invalid password")
	ErrTooManyLogins = errors.New("too many login attempts, try again later")
)

// Auth guards the admin surface: one bcrypt-hashed password, HS256 tokens.
type Auth struct {
	hash   []byte
	secret []byte

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth hashes password for later comparison. An empty password disables
// admin logins. An empty secret is replaced by a random one, which makes
// tokens die with the process.
func NewAuth(password, secret string) (*Auth, error) {
	a := &Auth{rateMap: make(map[string]*rateEntry)}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		a.hash = hash
	}
	if secret != "" {
		a.secret = []byte(secret)
	} else {
		a.secret = make([]byte, 32)
		if _, err := rand.Read(a.secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	return a, nil
}

// Enabled reports whether a password is configured.
func (a *Auth) Enabled() bool {
	return len(a.hash) > 0
}

// Login checks password and returns a signed token.
func (a *Auth) Login(password, ip string) (string, error) {
	if !a.Enabled() {
		return "", ErrAdminDisabled
	}
	if !a.checkRate(ip) {
		return "", ErrTooManyLogins
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate checks a token's signature, expiry and subject.
func (a *Auth) Validate(tokenStr string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid || claims.Subject != adminSubject {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// Require wraps next so it only runs with a valid bearer token.
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.Validate(tok) != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"identitykit/internal/platform/httpserver"
	"identitykit/internal/platform/middleware"
)

// demoPassword is the only accepted password; the email is free-form.
const demoPassword = "correct-horse"

// provider is a minimal in-process identity provider for the demo: a login
// form that redirects back with a signed token, and an account endpoint that
// validates it. It stands in for a real deployment so the demo has no
// external dependency.
type provider struct {
	server       *http.Server
	group        *errgroup.Group
	logger       *slog.Logger
	signingKey   []byte
	passwordHash []byte
}

func newProvider(addr string, logger *slog.Logger) (*provider, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := &provider{
		group:        &errgroup.Group{},
		logger:       logger,
		signingKey:   []byte("demo-signing-key"),
		passwordHash: hash,
	}

	router := chi.NewRouter()
	router.Get("/login", p.loginPage)
	router.Post("/login", p.handleLogin)
	router.With(middleware.RequireAuth(p, logger)).Get("/v1/account", p.handleAccount)
	p.server = httpserver.New(addr, router)
	return p, nil
}

// ValidateToken implements middleware.TokenValidator for the demo's HS256
// tokens.
func (p *provider) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	email, _ := claims["email"].(string)
	sub, _ := claims["sub"].(string)
	return &middleware.TokenClaims{UserID: sub, Email: email}, nil
}

func (p *provider) Start() {
	p.logger.Info("demo identity provider starting", "addr", p.server.Addr)
	p.group.Go(func() error {
		if err := p.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func (p *provider) Close(ctx context.Context) error {
	if err := p.server.Shutdown(ctx); err != nil {
		return err
	}
	return p.group.Wait()
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Demo identity provider</h1>
<form method="post" action="/login">
  <input type="hidden" name="redirect" value="{{.Redirect}}">
  <label>Email <input type="email" name="email" value="{{.Email}}"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Log in</button>
</form>
</body>
</html>
`))

func (p *provider) loginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := loginTemplate.Execute(w, struct {
		Email    string
		Redirect string
	}{
		Email:    r.URL.Query().Get("email"),
		Redirect: r.URL.Query().Get("redirect"),
	})
	if err != nil {
		p.logger.Error("render login page", "error", err)
	}
}

func (p *provider) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	redirect := r.PostFormValue("redirect")
	if email == "" || redirect == "" {
		http.Error(w, "email and redirect required", http.StatusBadRequest)
		return
	}
	if bcrypt.CompareHashAndPassword(p.passwordHash, []byte(r.PostFormValue("password"))) != nil {
		http.Error(w, "wrong password", http.StatusUnauthorized)
		return
	}

	claims := jwt.MapClaims{
		"sub":   "demo-1",
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		http.Error(w, "sign token", http.StatusInternalServerError)
		return
	}

	target, err := url.Parse(redirect)
	if err != nil {
		http.Error(w, "bad redirect", http.StatusBadRequest)
		return
	}
	query := target.Query()
	query.Set("token", token)
	target.RawQuery = query.Encode()

	p.logger.Info("demo login issued", "email", email)
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

func (p *provider) handleAccount(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{
  "id": %q,
  "publicUid": "pub-%s",
  "displayName": "Demo User",
  "email": %q,
  "firstName": "Demo",
  "lastName": "User",
  "gender": "other",
  "birthdate": "1990-01-02",
  "verified": true
}`, claims.UserID, claims.UserID, claims.Email)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"go.uber.org/zap"
)

// Authenticator checks seller credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type AuthHandler struct {
	users Authenticator
	log   *zap.Logger
}

func NewAuthHandler(users Authenticator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/seller"
	}
	return next
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := auth.UserIDFromContext(r.Context()); ok {
			http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
			return
		}
		render(w, r, h.log, http.StatusOK, "login.html", map[string]any{"Next": r.URL.Query().Get("next")})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	user, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			serverError(w, r, h.log, "authenticate", err)
			return
		}
		h.log.Info("failed login", zap.String("username", username))
		render(w, r, h.log, http.StatusUnauthorized, "login.html", map[string]any{
			"Error":    "invalid_credentials",
			"Username": username,
			"Next":     next,
		})
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Package auth issues and verifies channel access tokens and serves the
// signup, signin and signout endpoints.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/vidshare/vidshare/internal/httputil"
	"github.com/vidshare/vidshare/internal/models"
	"github.com/vidshare/vidshare/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

// Accounts is the slice of the store the auth handlers need.
type Accounts interface {
	CreateChannel(ctx context.Context, name, email, passwordHash string) (models.Channel, error)
	FindChannelByEmail(ctx context.Context, email string) (models.Channel, error)
}

type Handler struct {
	accounts      Accounts
	jwtSecret     string
	cookieName    string
	secureCookies bool
}

func NewHandler(accounts Accounts, cfg VerifierConfig, secureCookies bool) *Handler {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Handler{accounts: accounts, jwtSecret: cfg.Secret, cookieName: name, secureCookies: secureCookies}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string         `json:"accessToken"`
	Channel     models.Channel `json:"channel"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" || req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}
	if msg := validate.ChannelName(req.Name); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if len(req.Password) > 72 {
		httputil.WriteError(w, http.StatusBadRequest, "password must be at most 72 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	channel, err := h.accounts.CreateChannel(r.Context(), req.Name, req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			httputil.WriteError(w, http.StatusConflict, "name or email already in use")
			return
		}
		slog.Error("signup: create channel", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create channel")
		return
	}

	h.respondWithToken(w, http.StatusCreated, channel)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	channel, err := h.accounts.FindChannelByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			slog.Error("signin: find channel", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to sign in")
			return
		}
		httputil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(channel.Password), []byte(req.Password)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.respondWithToken(w, http.StatusOK, channel)
}

func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, channel models.Channel) {
	token, err := GenerateAccessToken(h.jwtSecret, channel.ID, channel.Name)
	if err != nil {
		slog.Error("issue access token", "channel_id", channel.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(AccessTokenDuration / time.Second),
	})
	httputil.WriteJSON(w, status, authResponse{AccessToken: token, Channel: channel})
}

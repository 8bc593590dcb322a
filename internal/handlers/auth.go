package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/middleware"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
	"github.com/lifetrack-app/lifetrack-backend/internal/users"
	"github.com/lifetrack-app/lifetrack-backend/pkg/clientip"
	"github.com/lifetrack-app/lifetrack-backend/pkg/utils"
)

// Auth serves signup, signin, and the principal echo.
type Auth struct {
	users  users.Store
	tokens *middleware.Authenticator
	expose bool
}

func NewAuth(store users.Store, tokens *middleware.Authenticator, expose bool) *Auth {
	return &Auth{users: store, tokens: tokens, expose: expose}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *signupRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&req.Password, validation.Required, validation.Length(8, 128)),
	)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Signup handles POST /auth/signup: create the account and sign the
// caller in with one request.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, "hash password", err, h.expose)
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Name:      strings.TrimSpace(req.Name),
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody("an account with this email already exists"))
			return
		}
		writeError(w, "create user", err, h.expose)
		return
	}

	token, err := h.tokens.IssueToken(user)
	if err != nil {
		writeError(w, "issue token", err, h.expose)
		return
	}
	slog.Info("account created", slog.String("user", user.ID), slog.String("ip", clientip.Forwarded(r)))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Signin handles POST /auth/signin.
func (h *Auth) Signin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("email and password are required"))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Same response as a bad password; registered addresses
			// must not be distinguishable.
			slog.Warn("signin rejected", slog.String("ip", clientip.Forwarded(r)))
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid email or password"))
			return
		}
		writeError(w, "load user", err, h.expose)
		return
	}

	match, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil {
		writeError(w, "verify password", err, h.expose)
		return
	}
	if !match {
		slog.Warn("signin rejected", slog.String("ip", clientip.Forwarded(r)))
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid email or password"))
		return
	}

	token, err := h.tokens.IssueToken(user)
	if err != nil {
		writeError(w, "issue token", err, h.expose)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me handles GET /auth/me: it echoes the token's principal without a
// database read.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/aora/backend/internal/appwrite"
	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/middleware"
	"github.com/aora/backend/internal/models"
)

const minPasswordLength = 8

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Accounts AccountService
	Sessions SessionManager
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		logger.Warn("signup missing fields", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "email, password and username are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("signup invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(req.Password) < minPasswordLength {
		logger.Warn("signup password too short", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, session, err := h.Accounts.CreateUser(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		if appwrite.IsConflict(err) {
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("signup failed", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusBadGateway, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.AccountID, session.Secret)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "accountId", user.AccountID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if appwrite.IsUnauthorized(err) {
			respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error("login failed", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusBadGateway, "unable to sign in")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, session.UserID, session.Secret)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "accountId", session.UserID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	user := h.Accounts.GetCurrentUser(appwrite.WithSession(ctx, session.Secret))
	respondJSON(ctx, w, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout. The local session is revoked even
// when Appwrite fails to delete its side.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if session, ok := middleware.SessionFromContext(ctx); ok && h.Sessions != nil {
		h.Sessions.Revoke(ctx, session.ID)
	}

	if h.Accounts == nil {
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}
	if err := h.Accounts.SignOut(ctx); err != nil {
		logger.Error("sign out failed", "error", err)
		respondError(ctx, w, http.StatusBadGateway, "unable to sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   *models.User         `json:"user,omitempty"`
	Tokens models.SessionTokens `json:"tokens"`
}

package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"cinetrack/models"
	"cinetrack/services/accounts"
	"cinetrack/services/auth"
)

type accountsService interface {
	Signup(ctx context.Context, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GoogleLogin(ctx context.Context, email, googleID string) (models.User, error)
}

var _ accountsService = (*accounts.Service)(nil)

type tokenIssuer interface {
	Issue(userID int64) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, credential string) (email, subject string, err error)
}

type AuthHandler struct {
	accounts accountsService
	tokens   tokenIssuer
	google   googleVerifier
}

func NewAuthHandler(accountsSvc accountsService, tokens tokenIssuer, google googleVerifier) *AuthHandler {
	return &AuthHandler{accounts: accountsSvc, tokens: tokens, google: google}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeBody(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.accounts.Signup(r.Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailRequired), errors.Is(err, accounts.ErrPasswordRequired):
			writeMessage(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, accounts.ErrEmailTaken):
			writeMessage(w, http.StatusConflict, "User already exists")
		default:
			log.Printf("[auth] signup failed: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeBody(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("[auth] login failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.issueToken(w, user.ID)
}

// Google handles POST /google: verifies a Google ID token, finds or
// creates the matching account and returns an app token.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credential string `json:"credential"`
	}
	if err := decodeBody(r, &body); err != nil || body.Credential == "" {
		writeMessage(w, http.StatusBadRequest, "Google authentication failed")
		return
	}

	email, googleID, err := h.google.Verify(r.Context(), body.Credential)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Google authentication failed")
		return
	}

	user, err := h.accounts.GoogleLogin(r.Context(), email, googleID)
	if err != nil {
		log.Printf("[auth] google login failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.issueToken(w, user.ID)
}

// Protected handles GET /protected, a session liveness probe.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Protected route working",
		"userId":  userID,
	})
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, userID int64) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		log.Printf("[auth] token issue failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

var _ googleVerifier = (*auth.GoogleVerifier)(nil)

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/famledger/famledger/internal/access"
	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
	"github.com/famledger/famledger/internal/utils"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService     services.AuthService
	userService     services.UserService
	categoryService services.CategoryService
	resolver        *access.Resolver
	jwtSecretKey    []byte
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService services.AuthService,
	userService services.UserService,
	categoryService services.CategoryService,
	resolver *access.Resolver,
	jwtSecretKey []byte,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		userService:     userService,
		categoryService: categoryService,
		resolver:        resolver,
		jwtSecretKey:    jwtSecretKey,
	}
}

// RegisterAuthenticatedRoutes registers the routes that need a valid
// token. Signup and Login are attached to the public router directly.
func (h *AuthHandler) RegisterAuthenticatedRoutes(router *mux.Router) {
	router.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	router.HandleFunc("/auth/session", h.Session).Methods("GET")
}

// Signup registers a new account. The caller is signed in immediately
// but starts in the pending state until an administrator approves it.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	// Create the account
	user, err := h.authService.Signup(req)
	if err != nil {
		writeError(w, err)
		return
	}

	// Give the new account its starter categories
	if err := h.categoryService.SeedDefaults(user.ID); err != nil {
		slog.Error("Failed to seed default categories", "user", user.ID, "error", err)
	}

	// Generate token
	tokenString, err := h.authService.GenerateToken(user, h.jwtSecretKey)
	if err != nil {
		http.Error(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, models.TokenResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		User:        &user,
	})
}

// Login handles user login and returns a JWT token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	// Authenticate the user
	user, err := h.authService.Authenticate(loginReq.Email, loginReq.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Generate token
	tokenString, err := h.authService.GenerateToken(user, h.jwtSecretKey)
	if err != nil {
		http.Error(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		User:        &user,
	})
}

// Logout revokes the presented token so it cannot be replayed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.GetClaimsFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.authService.RevokeToken(r.Context(), claims); err != nil {
		slog.Error("Failed to revoke token", "error", err)
		http.Error(w, "Could not revoke token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Session reports the caller's identity and resolved access state. The
// profile is re-read on every call so approval changes show up without
// a new login.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.GetClaimsFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	identity := &access.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
	state := h.resolver.ResolveFresh(identity, h.userService)

	resp := models.SessionResponse{AccessState: string(state)}
	user, err := h.userService.GetUserByID(claims.UserID)
	if err == nil {
		resp.User = &user
	} else if !errors.Is(err, common.ErrNotFound) {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

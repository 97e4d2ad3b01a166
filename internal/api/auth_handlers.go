package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/inventory-dashboard/internal/auth"
	"github.com/example/inventory-dashboard/internal/infrastructure/store"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	store      store.Interface
	jwtService *auth.JWTService
}

func NewAuthHandlers(st store.Interface, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		store:      st,
		jwtService: jwtService,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Error during registration")
		return
	}
	if existing != nil {
		respondMessage(w, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if err == auth.ErrPasswordTooShort {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		respondMessage(w, http.StatusInternalServerError, "Error during registration")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Name, req.Email, hash)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Error during registration")
		return
	}

	token, _, err := h.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Error during registration")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"token":   token,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Error logging in")
		return
	}
	if user == nil {
		respondMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, _, err := h.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   token,
	})
}

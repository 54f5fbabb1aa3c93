package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carewave/hospital-concierge/pkg/logging"
)

// Handler handles HTTP requests for admin account management.
type Handler struct {
	repo      *Repository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logging.Logger
	now       func() time.Time
}

// NewHandler creates an admin handler.
func NewHandler(repo *Repository, jwtSecret string, logger *logging.Logger) *Handler {
	return &Handler{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  12 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateUser handles POST /api/admin/create requests.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, "email already registered", http.StatusConflict)
		case errors.Is(err, ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to create admin user", "error", err)
			http.Error(w, "failed to create user", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("admin user created", "id", user.ID, "role", user.Role)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type deleteUserRequest struct {
	UserID string `json:"userId"`
}

// DeleteUser handles DELETE /api/admin/delete requests.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), req.UserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete admin user", "error", err, "user_id", req.UserID)
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}

	h.logger.Info("admin user deleted", "user_id", req.UserID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ListUsers handles GET /api/admin/list requests.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list admin users", "error", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": users})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login handles POST /api/admin/login requests and mints an HMAC JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.Authenticate(r.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("admin login failed", "error", err)
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}

	token, err := h.mintToken(user)
	if err != nil {
		h.logger.Error("failed to sign admin token", "error", err)
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Token: token, User: user})
}

func (h *Handler) mintToken(user *User) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		Issuer:    "hospital-concierge",
		Audience:  jwt.ClaimStrings{user.Role},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/identity/domain"
)

// UserHandler handles identity API requests. Registration stays thin: no
// credentials, just the marketplace profile.
type UserHandler struct {
	users  domain.UserRepository
	logger *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users domain.UserRepository, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Role    string `json:"role"`
		Segment string `json:"segment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	user, err := domain.NewUser(req.Name, req.Phone, req.Email, domain.Role(req.Role), domain.Segment(req.Segment))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.users.Save(r.Context(), user); err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// GetUser handles GET /api/v1/users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid user id"})
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

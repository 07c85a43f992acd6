package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/service"
)

// AuthService is the slice of the user service the auth endpoints
// need. Consumers define this interface, not the implementation.
type AuthService interface {
	Register(ctx context.Context, input *service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Refresh(ctx context.Context, userID int64) (*service.Session, error)
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
}

type AuthHandler struct {
	svc     AuthService
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, timeout: timeout}
}

type RegisterRequestDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponseDTO struct {
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

func toSessionDTO(session *service.Session) SessionResponseDTO {
	return SessionResponseDTO{
		Token:     session.Token,
		TokenType: "bearer",
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		User:      toUserDTO(session.User),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.svc.Register(ctx, &service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Avatar:    req.Avatar,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserDTO(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toSessionDTO(session))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.svc.GetProfile(ctx, userIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserDTO(user))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.svc.Refresh(ctx, userIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toSessionDTO(session))
}

// Logout is stateless: tokens simply expire. The endpoint exists so
// the frontend has something to call.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

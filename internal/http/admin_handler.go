package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Georgemuchir/thrift-ease/internal/domain"
	"github.com/Georgemuchir/thrift-ease/internal/repository"
)

type AdminService interface {
	ListUsers(ctx context.Context, skip, limit int) ([]*domain.User, error)
	MakeAdmin(ctx context.Context, userID int64) error
	DeactivateUser(ctx context.Context, userID int64) error
	AdminStats(ctx context.Context) (*repository.AdminStats, error)
}

type AdminHandler struct {
	svc     AdminService
	timeout time.Duration
}

func NewAdminHandler(svc AdminService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{svc: svc, timeout: timeout}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	skip, limit := parsePagination(r)
	users, err := h.svc.ListUsers(ctx, skip, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *AdminHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user id must be a positive integer")
		return
	}

	if err := h.svc.MakeAdmin(ctx, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "promoted"})
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "user id must be a positive integer")
		return
	}

	if err := h.svc.DeactivateUser(ctx, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.svc.AdminStats(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

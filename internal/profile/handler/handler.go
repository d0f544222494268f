// Package handler exposes the onboarding endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gomunity/internal/platform/middleware"
	"gomunity/internal/profile/models"
	dErrors "gomunity/pkg/domain-errors"
	"gomunity/pkg/platform/httputil"
)

// Service defines the profile operations the handler needs.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req models.CreateProfileRequest) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Handler wires profile endpoints to the profile service. Both endpoints
// require an authenticated session.
type Handler struct {
	service   Service
	validator middleware.JWTValidator
	logger    *slog.Logger
}

func New(service Service, validator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// Register mounts profile endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/api/profile", h.HandleCreate)
		r.Get("/api/profile", h.HandleGet)
	})
}

// HandleCreate handles the onboarding form submission.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user"))
		return
	}

	var req models.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	p, err := h.service.Create(ctx, userID, req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "profile creation failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleGet returns the caller's profile, null body fields when absent.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user"))
		return
	}

	p, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if p == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "profile not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, p)
}

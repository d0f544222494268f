// Package handler exposes the login flow over HTTP: the provider redirect,
// the OAuth callback, the token exchange proxy, logout, and session
// bootstrap.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gomunity/internal/auth/device"
	"gomunity/internal/auth/service"
	"gomunity/internal/identity"
	"gomunity/internal/kakao"
	"gomunity/internal/platform/middleware"
	profilemodels "gomunity/internal/profile/models"
	dErrors "gomunity/pkg/domain-errors"
	"gomunity/pkg/platform/httputil"
)

//go:generate go run go.uber.org/mock/mockgen -source=handler.go -destination=mocks/mock_service.go -package=mocks

// Service defines the auth operations the handler needs.
type Service interface {
	AuthorizeURL() string
	HandleCallback(ctx context.Context, code string) (*service.CallbackResult, error)
	ExchangeToken(ctx context.Context, code, redirectURI string) (*kakao.TokenResponse, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*identity.User, *profilemodels.Profile, error)
}

// Handler wires auth endpoints to the auth service.
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

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/kakao/login", h.HandleLogin)
	r.Get("/auth/callback/kakao", h.HandleCallback)
	r.Post("/api/auth/kakao/token", h.HandleTokenExchange)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/auth/logout", h.HandleLogout)
		r.Get("/api/auth/me", h.HandleMe)
	})
}

// HandleLogin redirects the user agent to Kakao's authorization endpoint.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.AuthorizeURL(), http.StatusFound)
}

// HandleCallback receives the provider redirect. Provider-reported errors
// and a missing code short-circuit to the login page without touching the
// token endpoint; only a present code starts the bridge chain.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.WarnContext(ctx, "kakao reported an authorization error",
			"request_id", middleware.GetRequestID(ctx),
			"error", providerErr,
		)
		h.loginRedirect(w, r, "kakao_oauth_error")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.loginRedirect(w, r, "no_code")
		return
	}

	ctx = device.ContextWithUserAgent(ctx, r.UserAgent())
	res, err := h.service.HandleCallback(ctx, code)
	if err != nil {
		h.loginRedirect(w, r, "callback_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Session.AccessToken,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	target := "/"
	if !res.HasProfile {
		target = "/auth/signup"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type tokenExchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// HandleTokenExchange proxies the authorization-code exchange so the client
// secret never reaches the user agent. The upstream token payload is relayed
// untouched on success.
func (h *Handler) HandleTokenExchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req tokenExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	if req.Code == "" || req.RedirectURI == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "code and redirect_uri are required"))
		return
	}
	if !govalidator.IsURL(req.RedirectURI) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "redirect_uri must be a URL"))
		return
	}

	token, err := h.service.ExchangeToken(ctx, req.Code, req.RedirectURI)
	if err != nil {
		if errors.Is(err, kakao.ErrUpstream) {
			// Upstream rejection detail stays in the log line only.
			h.logger.WarnContext(ctx, "kakao rejected token exchange",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token exchange rejected"))
			return
		}
		h.logger.ErrorContext(ctx, "token exchange failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "token exchange failed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(token.Raw)
}

// HandleLogout revokes the current session and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(middleware.GetSessionID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid session"))
		return
	}

	if err := h.service.Logout(ctx, sessionID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", middleware.GetRequestID(ctx),
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User    *identity.User         `json:"user"`
	Profile *profilemodels.Profile `json:"profile"`
}

// HandleMe returns the current user and profile for session bootstrap. The
// profile is null until onboarding completes.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid user"))
		return
	}

	user, prof, err := h.service.Me(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, meResponse{User: user, Profile: prof})
}

func (h *Handler) loginRedirect(w http.ResponseWriter, r *http.Request, tag string) {
	http.Redirect(w, r, "/auth/login?error="+url.QueryEscape(tag), http.StatusFound)
}

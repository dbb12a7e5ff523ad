// Package httpapi exposes the session operations as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Sessions is the subset of services.SessionService used by the handlers.
type Sessions interface {
	Register(ctx context.Context, email, password string) (*services.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Verify(ctx context.Context, userID, code string) (*services.LoginResult, error)
	ResendCode(ctx context.Context, email string) error
	Refresh(ctx context.Context, token string) (*services.TokenPair, error)
	Logout(ctx context.Context, token string)
	Profile(ctx context.Context, userID string) (*services.Profile, error)
	DeleteUser(ctx context.Context, userID string) error
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Pinger reports store reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	sessions      Sessions
	logger        logging.Logger
	secureCookies bool
	now           func() time.Time
	validate      *validator.Validate
}

func NewHandler(sessions Sessions, logger logging.Logger, secureCookies bool) *Handler {
	return &Handler{
		sessions:      sessions,
		logger:        logger.With("module", "httpapi"),
		secureCookies: secureCookies,
		now:           time.Now,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decode reads a JSON body into dst and validates it. On failure the response
// has been written and false is returned.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorsResponse{Errors: []string{"Invalid payload."}})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorsResponse{Errors: fieldErrors(err)})
		return false
	}
	return true
}

func fieldErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"Invalid payload."}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Tag() == "required" {
			out = append(out, fmt.Sprintf("The %s field is required.", fe.Field()))
			continue
		}
		out = append(out, fmt.Sprintf("The %s field is not valid.", fe.Field()))
	}
	return out
}

// fail maps a service error to a response. Unexpected errors are logged and
// answered with msg.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorsResponse{Errors: ve.Problems})
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrorUnauthorized):
		respondUnauthorized(w)
	case errors.Is(err, common.ErrInvalidCode):
		respondMessage(w, http.StatusBadRequest, false, "Invalid or expired verification code.")
	case errors.Is(err, common.ErrAlreadyExists):
		respondMessage(w, http.StatusBadRequest, false, "Already exists.")
	case errors.Is(err, common.ErrorNotFound):
		respondMessage(w, http.StatusNotFound, false, "User not found.")
	default:
		h.logger.Error(r.Context(), msg, "error", err, "path", r.URL.Path)
		respondMessage(w, http.StatusInternalServerError, false, msg)
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "An unexpected error occurred during registration.")
		return
	}

	respondJSON(w, http.StatusOK, registerResponse{
		Success:              true,
		Message:              "Registration successful. A verification code has been sent to your email.",
		UserID:               res.UserID,
		RequiresVerification: true,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err, "An unexpected error occurred during login.")
		return
	}

	if res.RequiresVerification {
		respondJSON(w, http.StatusOK, loginResponse{
			Success:              true,
			RequiresVerification: true,
			UserID:               res.UserID,
			Message:              "A verification code has been sent to your email.",
		})
		return
	}

	h.setRefreshCookie(w, res.RefreshToken)
	respondJSON(w, http.StatusOK, loginResponse{Success: true, Token: res.AccessToken})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.sessions.Verify(r.Context(), req.UserID, req.Code)
	if err != nil {
		h.fail(w, r, err, "An unexpected error occurred while verifying your email.")
		return
	}

	h.setRefreshCookie(w, res.RefreshToken)
	respondJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Message: "Email successfully verified.",
		Token:   res.AccessToken,
	})
}

func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sessions.ResendCode(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, "An unexpected error occurred while sending the code.")
		return
	}
	respondMessage(w, http.StatusOK, true, "Verification code sent.")
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	old := refreshCookie(r)
	if old == "" {
		respondUnauthorized(w)
		return
	}

	pair, err := h.sessions.Refresh(r.Context(), old)
	if err != nil {
		h.fail(w, r, err, "An unexpected error occurred while refreshing the session.")
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	respondJSON(w, http.StatusOK, tokenResponse{Token: pair.AccessToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), refreshCookie(r))
	h.clearRefreshCookie(w)
	respondMessage(w, http.StatusOK, true, "Logged out successfully.")
}

// DeleteUser is the admin deletion endpoint.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := h.sessions.DeleteUser(r.Context(), userID); err != nil {
		h.fail(w, r, err, "An unexpected error occurred while deleting the user.")
		return
	}
	respondMessage(w, http.StatusOK, true, "User deleted successfully.")
}

// HardDelete is the service-to-service deletion endpoint.
func (h *Handler) HardDelete(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	err := h.sessions.DeleteUser(r.Context(), userID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrorNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "internal delete failed", "error", err, "user_id", userID)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handler) RoleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		respondUnauthorized(w)
		return
	}

	p, err := h.sessions.Profile(r.Context(), claims.UserID())
	if err != nil {
		h.fail(w, r, err, "An error occurred while retrieving user roles.")
		return
	}
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	respondJSON(w, http.StatusOK, profileResponse{ID: p.ID, Email: p.Email, Roles: roles})
}

// Health reports liveness and, if a pinger is set, database reachability.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const uuidPattern = "{userId:[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}}"

type RouterConfig struct {
	AllowedOrigins []string
	InternalAPIKey string
	DB             Pinger
}

// NewRouter assembles the HTTP API with CORS and access logging.
func NewRouter(h *Handler, verifier TokenVerifier, logger logging.Logger, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", Health(cfg.DB)).Methods(http.MethodGet)

	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/verify-email", h.VerifyEmail).Methods(http.MethodPost)
	authRouter.HandleFunc("/send-code", h.SendCode).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	adminRouter := router.PathPrefix("/api/auth").Subrouter()
	adminRouter.Use(BearerAuth(verifier), RequireRole(common.AdminRole))
	adminRouter.HandleFunc("/"+uuidPattern, h.DeleteUser).Methods(http.MethodDelete)

	profileRouter := router.PathPrefix("/api/profile").Subrouter()
	profileRouter.Use(BearerAuth(verifier))
	profileRouter.HandleFunc("/role-me", h.RoleMe).Methods(http.MethodGet)

	internalRouter := router.PathPrefix("/internal/accounts").Subrouter()
	internalRouter.Use(APIKey(cfg.InternalAPIKey))
	internalRouter.HandleFunc("/"+uuidPattern, h.HardDelete).Methods(http.MethodDelete)

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", common.APIKeyHeaderName},
		AllowCredentials: true,
	})

	return AccessLog(logger.With("module", "http"))(co.Handler(router))
}

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/oauth2"

	"github.com/Prashanth1609/studyhub/internal/config"
	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

const discordAPIBase = "https://discord.com/api"

type API struct {
	router      *mux.Router
	svc         *studyhub.Service
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	discordAPI  string
	now         func() time.Time
}

func New(cfg *config.Config, svc *studyhub.Service) *API {
	api := &API{
		router:     mux.NewRouter(),
		svc:        svc,
		config:     cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		discordAPI: discordAPIBase,
		now:        time.Now,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.Use(logging.HTTPMiddleware(logging.L()))

	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	// Auth endpoints
	if a.config.OAuthEnabled() {
		a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
		a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	} else {
		a.router.PathPrefix("/api/auth/login").HandlerFunc(a.handleOAuthDisabled)
		a.router.PathPrefix("/api/auth/callback").HandlerFunc(a.handleOAuthDisabled)
	}
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/api/subjects", a.handleSubjects).Methods("GET")
	a.router.HandleFunc("/api/sessions/{id:[0-9]+}/calendar", a.handleCalendar).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/me", a.handleMe).Methods("GET")
	protected.HandleFunc("/feed", a.handleFeed).Methods("GET")
	protected.HandleFunc("/sessions", a.handleCreateSession).Methods("POST")
	protected.HandleFunc("/sessions/{id:[0-9]+}", a.handleSessionDetail).Methods("GET")
	protected.HandleFunc("/sessions/{id:[0-9]+}", a.handleUpdateSession).Methods("PUT")
	protected.HandleFunc("/sessions/{id:[0-9]+}", a.handleDeleteSession).Methods("DELETE")
	protected.HandleFunc("/sessions/{id:[0-9]+}/join", a.handleJoin).Methods("POST")
	protected.HandleFunc("/sessions/{id:[0-9]+}/leave", a.handleLeave).Methods("POST")
	protected.HandleFunc("/sessions/{id:[0-9]+}/waitlist", a.handleJoinWaitlist).Methods("POST")
	protected.HandleFunc("/sessions/{id:[0-9]+}/waitlist", a.handleLeaveWaitlist).Methods("DELETE")
	protected.HandleFunc("/sessions/{id:[0-9]+}/messages", a.handleListMessages).Methods("GET")
	protected.HandleFunc("/sessions/{id:[0-9]+}/messages", a.handlePostMessage).Methods("POST")
}

// Handler is the router wrapped in CORS handling.
func (a *API) Handler() http.Handler {
	// Note: When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", logging.HeaderRequestID},
		ExposedHeaders:   []string{logging.HeaderRequestID},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *API) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.WebBind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	l := logging.L()
	l.Info().Str("addr", a.config.WebBind).Msg("API server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

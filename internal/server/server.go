package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vidshare/vidshare/internal/auth"
	"github.com/vidshare/vidshare/internal/channel"
	"github.com/vidshare/vidshare/internal/ratelimit"
	"github.com/vidshare/vidshare/internal/upload"
	"github.com/vidshare/vidshare/internal/video"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is everything the HTTP layer needs from persistence. Both
// store.Postgres and store.Memory satisfy it.
type Store interface {
	Pinger
	video.Store
	video.ChannelLookup
	channel.Store
	auth.Accounts
}

type Config struct {
	Store          Store
	Pinger         Pinger
	Assets         upload.AssetStore
	Locator        video.Locator
	JWTSecret      string
	CookieName     string
	BaseURL        string
	AllowedOrigins []string
	MaxUploadBytes int64
	StoragePublic  string
	// TrustProxy rewrites the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets those headers itself.
	TrustProxy bool
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	verifier       *auth.Verifier
	authHandler    *auth.Handler
	videoHandler   *video.Handler
	channelHandler *channel.Handler
	uploadHandler  *upload.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.StoragePublic,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{router: r, pinger: cfg.Pinger}
	if s.pinger == nil && cfg.Store != nil {
		s.pinger = cfg.Store
	}

	if cfg.Store != nil {
		secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")
		s.verifier = auth.NewVerifier(auth.VerifierConfig{Secret: cfg.JWTSecret, CookieName: cfg.CookieName})
		s.authHandler = auth.NewHandler(cfg.Store, auth.VerifierConfig{
			Secret:     cfg.JWTSecret,
			CookieName: s.verifier.CookieName(),
		}, secureCookies)
		s.videoHandler = video.NewHandler(cfg.Store, cfg.Store)
		if cfg.Locator != nil {
			s.videoHandler.SetLocator(cfg.Locator)
		}
		if remover, ok := cfg.Assets.(video.AssetRemover); ok {
			s.videoHandler.SetAssetRemover(remover)
		}
		s.channelHandler = channel.NewHandler(cfg.Store)
		if cfg.Assets != nil {
			s.uploadHandler = upload.NewHandler(cfg.Assets, cfg.MaxUploadBytes)
		}
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	if s.authHandler == nil {
		return
	}

	authLimiter := ratelimit.NewLimiter(0.5, 5)
	s.router.Route("/api/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/signup", s.authHandler.Signup)
		r.Post("/signin", s.authHandler.Signin)
		r.Post("/signout", s.authHandler.Signout)
	})

	apiLimiter := ratelimit.NewLimiter(5, 20)
	s.router.Route("/api/videos", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Group(func(r chi.Router) {
			r.Use(s.verifier.Optional)
			r.Get("/", s.videoHandler.List)
			r.Get("/find/{id}", s.videoHandler.Get)
			r.Get("/channel/{id}", s.videoHandler.ByChannel)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.verifier.Middleware)
			r.Get("/history", s.videoHandler.History)
			r.Post("/", s.videoHandler.Create)
			r.Put("/{id}", s.videoHandler.Update)
			r.Delete("/{id}", s.videoHandler.Delete)
			r.Put("/like/{id}", s.videoHandler.Like)
			r.Put("/dislike/{id}", s.videoHandler.Dislike)
		})
	})

	s.router.Route("/api/channels", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		r.Get("/{id}", s.channelHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(s.verifier.Middleware)
			r.Put("/{id}", s.channelHandler.Update)
			r.Put("/subscribe/{id}", s.channelHandler.Subscribe)
			r.Put("/unsubscribe/{id}", s.channelHandler.Unsubscribe)
		})
	})

	if s.uploadHandler != nil {
		uploadLimiter := ratelimit.NewLimiter(0.2, 5)
		s.router.Route("/api/uploads", func(r chi.Router) {
			r.Use(uploadLimiter.Middleware)
			r.Use(s.verifier.Middleware)
			r.Post("/{category}", s.uploadHandler.Upload)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/jwt"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/stream"
	"github.com/dmitrymomot/notifyhub/pkg/token"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

// Config holds the module settings.
type Config struct {
	// Page is where form submissions are redirected.
	Page string `env:"NOTIFY_PAGE" envDefault:"/notifications"`
	// SessionCookie is read when no bearer token is sent.
	SessionCookie string `env:"SESSION_COOKIE" envDefault:"notifyhub_session"`
}

// Deps are the services the module is built on.
type Deps struct {
	Store    notifications.Store
	Resolver *preferences.Resolver
	Devices  devices.Registry
	// Subscriptions enables POST /subscriptions when set.
	Subscriptions notifications.SubscriptionRegistry
	Gateway       *stream.Gateway
	Auth          *jwt.Service
	CSRF          *token.CSRF
	Push          webpush.Config
	Logger        *slog.Logger
}

// Module serves the notification endpoints of signed-in users.
type Module struct {
	cfg           Config
	store         notifications.Store
	resolver      *preferences.Resolver
	devices       devices.Registry
	subscriptions notifications.SubscriptionRegistry
	gateway       *stream.Gateway
	auth          *jwt.Service
	csrf          *token.CSRF
	push          webpush.Config
	logger        *slog.Logger
}

func New(cfg Config, deps Deps) *Module {
	if cfg.Page == "" {
		cfg.Page = "/notifications"
	}
	l := deps.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &Module{
		cfg:           cfg,
		store:         deps.Store,
		resolver:      deps.Resolver,
		devices:       deps.Devices,
		subscriptions: deps.Subscriptions,
		gateway:       deps.Gateway,
		auth:          deps.Auth,
		csrf:          deps.CSRF,
		push:          deps.Push,
		logger:        l.With(logger.Component("http.notifications")),
	}
}

// Handle returns the router, meant to be mounted at /notifications.
//
//	r := chi.NewRouter()
//	r.Mount("/notifications", notifications.New(cfg, deps).Handle())
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	extractors := []jwt.TokenExtractorFunc{jwt.BearerTokenExtractor}
	if m.cfg.SessionCookie != "" {
		extractors = append(extractors, jwt.CookieTokenExtractor(m.cfg.SessionCookie))
	}
	r.Use(jwt.Middleware(m.auth, m.wrap(m.unauthorized), extractors...))

	r.Get("/", m.wrap(m.list))
	r.Get("/stream", m.serveStream)
	r.Get("/unread-count", m.wrap(m.unreadCount))
	r.Get("/peek", m.wrap(m.peek))
	r.Get("/csrf", m.wrap(m.issueCSRF))
	r.Get("/preferences", m.wrap(m.preferences))
	r.Post("/preferences", m.wrap(m.updateGlobal))
	r.Post("/preferences/{type}", m.wrap(m.updateType))
	r.Post("/push", m.wrap(m.pushIntent))
	if m.subscriptions != nil {
		r.Post("/subscriptions", m.wrap(m.subscribe))
	}
	r.Post("/{action}", m.wrap(m.mutate))

	return r
}

func (m *Module) wrap(h handler.HandlerFunc) http.HandlerFunc {
	return handler.Wrap(h, m.logger)
}

func (m *Module) unauthorized(r *http.Request) handler.Response {
	return handler.NegotiateError(r, m.cfg.Page, handler.ErrAuth)
}

func session(r *http.Request) jwt.Session {
	sess, _ := jwt.SessionFromContext(r.Context())
	return sess
}

// verifyCSRF accepts the token from the form field or the header.
func (m *Module) verifyCSRF(r *http.Request, sess jwt.Session, fromBody string) error {
	tok := fromBody
	if tok == "" {
		tok = r.FormValue(token.FormField)
	}
	if tok == "" {
		tok = r.Header.Get(token.Header)
	}
	if err := m.csrf.Verify(tok, sess.UserID, sess.SessionID); err != nil {
		return handler.ErrCSRF
	}
	return nil
}

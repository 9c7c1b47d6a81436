package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/myron98980/halloween-party-app/internal/monitoring"
)

// SessionManager both issues and verifies session tokens.
type SessionManager interface {
	TokenIssuer
	TokenVerifier
}

// RouterConfig carries the dependencies for the HTTP surface. Tickets
// and Directory are usually the ticket service and the aggregator.
type RouterConfig struct {
	Tickets     TicketWriter
	Directory   TicketDirectory
	Dashboard   SummaryProvider
	Sessions    SessionManager
	Metrics     *monitoring.Metrics
	Logger      *logrus.Logger
	CORSOrigins []string
}

// NewRouter assembles the full route table with logging, metrics, CORS
// and per-route authentication.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = methodNotAllowedHandler()
	r.Use(RequestObserver(cfg.Logger, cfg.Metrics))

	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/session", HandleLogin(cfg.Sessions)).Methods(http.MethodPost)

	authed := func(h http.Handler) http.Handler {
		return Authenticate(h, cfg.Sessions)
	}
	r.Handle("/session/me", authed(HandleMe())).Methods(http.MethodGet)
	r.Handle("/tickets", authed(HandleCreateTickets(cfg.Tickets))).Methods(http.MethodPost)
	r.Handle("/tickets", authed(HandleListTickets(cfg.Directory))).Methods(http.MethodGet)
	r.Handle("/tickets/{id}", authed(HandleUpdateTicket(cfg.Tickets))).Methods(http.MethodPut)
	r.Handle("/tickets/{id}", authed(HandleDeleteTicket(cfg.Tickets))).Methods(http.MethodDelete)
	r.Handle("/dashboard", authed(HandleDashboard(cfg.Dashboard))).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}

func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
}

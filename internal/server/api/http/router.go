package http

import (
	"net/http"
	"time"

	"github.com/DenisKhanov/CitySupport/internal/server/api/http/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MaxBodySize caps every request body, multipart uploads included.
const MaxBodySize = 10 << 20

// Limit is one rate limit: Requests per Window for each client IP.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Limits configures the rate limiters of the API.
type Limits struct {
	API          Limit // Every /api route
	Chat         Limit // POST /api/chat/message
	TicketCreate Limit // POST /api/tickets

	// TrustProxy keys clients on X-Forwarded-For/X-Real-IP instead of the
	// socket peer. Enable only behind a reverse proxy that sets them.
	TrustProxy bool
}

// DefaultLimits are the production rate limits.
var DefaultLimits = Limits{
	API:          Limit{Requests: 100, Window: 15 * time.Minute},
	Chat:         Limit{Requests: 20, Window: time.Minute},
	TicketCreate: Limit{Requests: 10, Window: time.Hour},
}

// Recorder receives the HTTP metrics of the router.
type Recorder interface {
	middleware.RequestRecorder
	middleware.LimitRecorder
	Handler() http.Handler
}

// Router is the root HTTP handler of the support API.
type Router struct {
	chi.Router
	limiters []*middleware.RateLimiter
}

// NewRouter wires the routes of h with logging, CORS, body limit, rate limit
// and metrics middleware.
// Arguments:
//   - h: the endpoint handler.
//   - recorder: metrics receiver, also serving GET /metrics.
//   - origins: allowed CORS origins.
//   - limits: rate limits, usually DefaultLimits.
//
// Returns a pointer to a Router. Call Stop on shutdown.
func NewRouter(h *Handler, recorder Recorder, origins []string, limits Limits) *Router {
	apiLimiter := middleware.NewRateLimiter("api", limits.API.Requests, limits.API.Window,
		"Too many requests, please try again later", recorder)
	chatLimiter := middleware.NewRateLimiter("chat", limits.Chat.Requests, limits.Chat.Window,
		"Too many messages. Please slow down", recorder)
	ticketLimiter := middleware.NewRateLimiter("tickets", limits.TicketCreate.Requests, limits.TicketCreate.Window,
		"Too many tickets created. Please try again later", recorder)

	r := chi.NewRouter()
	if limits.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.LogrusLog())
	r.Use(middleware.Metrics(recorder))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.BodyLimit(MaxBodySize))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", recorder.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLimiter.Handler)
		r.With(chatLimiter.Handler).Post("/chat/message", h.ChatMessage)

		r.Route("/tickets", func(r chi.Router) {
			r.With(ticketLimiter.Handler).Post("/", h.CreateTicket)
			r.Get("/", h.ListTickets)
			r.Get("/{id}", h.GetTicket)
			r.Put("/{id}", h.UpdateTicket)
			r.Delete("/{id}", h.DeleteTicket)
			r.Post("/{id}/receipt", h.UploadReceipt)
			r.Get("/{id}/receipt/url", h.ReceiptURL)
		})
	})

	return &Router{
		Router:   r,
		limiters: []*middleware.RateLimiter{apiLimiter, chatLimiter, ticketLimiter},
	}
}

// Stop releases the background goroutines of the rate limiters.
func (r *Router) Stop() {
	for _, l := range r.limiters {
		l.Stop()
	}
}

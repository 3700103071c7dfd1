package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"formations/internal/adapters/http/middleware"
	"formations/internal/adapters/http/perf"
	"formations/internal/adapters/metrics"
	"formations/internal/adapters/storage"
	accountStore "formations/internal/adapters/storage/account"
	courseStore "formations/internal/adapters/storage/course"
	eventStore "formations/internal/adapters/storage/event"
	favoriteStore "formations/internal/adapters/storage/favorite"
	notificationStore "formations/internal/adapters/storage/notification"
	outboxStore "formations/internal/adapters/storage/outbox"
	profileStore "formations/internal/adapters/storage/profile"
	reviewStore "formations/internal/adapters/storage/review"
	"formations/internal/adapters/upload"
	"formations/internal/application/catalog"
	"formations/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	ProfileStore      profileStore.Store
	CourseStore       courseStore.Store
	ReviewStore       reviewStore.Store
	FavoriteStore     favoriteStore.Store
	NotificationStore notificationStore.Store
	EventStore        eventStore.Store
	OutboxStore       outboxStore.Store
}

// NewSQLiteStores builds every store on one database handle.
func NewSQLiteStores(db storage.SQLDB) *Stores {
	return &Stores{
		AccountStore:      accountStore.NewSQLiteStore(db),
		ProfileStore:      profileStore.NewSQLiteStore(db),
		CourseStore:       courseStore.NewSQLiteStore(db),
		ReviewStore:       reviewStore.NewSQLiteStore(db),
		FavoriteStore:     favoriteStore.NewSQLiteStore(db),
		NotificationStore: notificationStore.NewSQLiteStore(db),
		EventStore:        eventStore.NewSQLiteStore(db),
		OutboxStore:       outboxStore.NewSQLiteStore(db),
	}
}

// Options configures NewMux. Stores, Catalog and CSRFKey are required.
type Options struct {
	Stores    *Stores
	Catalog   *catalog.Cache
	Outbox    *orchestrators.OutboxProcessor
	Uploads   *upload.Store
	Metrics   *metrics.Metrics
	Collector *perf.Collector

	CSRFKey        []byte
	Production     bool
	TrustedOrigins []string
	SlowRequestMs  int

	// Ping reports datastore health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

var (
	catalogCache    *catalog.Cache
	outboxProcessor *orchestrators.OutboxProcessor
	uploads         *upload.Store
	appMetrics      *metrics.Metrics
	perfCollector   *perf.Collector
	ping            func(ctx context.Context) error
)

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the app.
// The returned stop function ends background housekeeping.
func NewMux(opts Options) (http.Handler, func()) {
	stores = opts.Stores
	catalogCache = opts.Catalog
	outboxProcessor = opts.Outbox
	uploads = opts.Uploads
	appMetrics = opts.Metrics
	perfCollector = opts.Collector
	ping = opts.Ping
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	registerRoutes(mux)
	if uploads != nil && strings.HasPrefix(uploads.PublicURL(), "/") {
		prefix := strings.TrimSuffix(uploads.PublicURL(), "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(uploads.Dir()))))
	}

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	limiter.StartCleanup(stop)

	// Outer to inner: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	handler := middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Production, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequestMs),
	)
	return handler, func() { close(stop) }
}

func registerRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("POST /api/register", handleRegister)
	mux.HandleFunc("POST /api/password", handleChangePassword)
	mux.HandleFunc("GET /api/session", handleSession)

	// Catalog and courses
	mux.HandleFunc("GET /api/catalog", handleCatalog)
	mux.HandleFunc("POST /api/courses", handleSubmitCourse)
	mux.HandleFunc("GET /api/courses/{id}", handleCourseDetail)
	mux.HandleFunc("PUT /api/courses/{id}", handleEditCourse)
	mux.HandleFunc("DELETE /api/courses/{id}", handleDeleteCourse)

	// Reviews and favorites
	mux.HandleFunc("POST /api/courses/{id}/reviews", handleSubmitReview)
	mux.HandleFunc("POST /api/courses/{id}/favorite", handleToggleFavorite)
	mux.HandleFunc("GET /api/favorites", handleFavorites)

	// Owner dashboard
	mux.HandleFunc("GET /api/dashboard", handleDashboard)
	mux.HandleFunc("POST /api/dashboard/merge", handleMergeProfile)

	// Congresses and webinars
	mux.HandleFunc("GET /api/events", handleEvents)
	mux.HandleFunc("POST /api/events", handleSubmitEvent)
	mux.HandleFunc("PUT /api/events/{id}", handleEditEvent)
	mux.HandleFunc("DELETE /api/events/{id}", handleDeleteEvent)

	mux.HandleFunc("POST /api/uploads", handleUpload)

	// Admin
	mux.HandleFunc("GET /api/admin/moderation", handleModerationQueue)
	mux.HandleFunc("POST /api/admin/courses/{id}/status", handleSetCourseStatus)
	mux.HandleFunc("POST /api/admin/courses/{id}/affiche", handleSetAfficheOrder)
	mux.HandleFunc("POST /api/admin/events/{id}/status", handleSetEventStatus)
	mux.HandleFunc("GET /api/admin/notifications", handleAdminNotifications)
	mux.HandleFunc("POST /api/admin/notifications/{id}/read", handleMarkNotificationRead)
	mux.HandleFunc("GET /api/admin/outbox", handleAdminOutboxList)
	mux.HandleFunc("POST /api/admin/outbox/{id}/retry", handleAdminOutboxRetry)
	mux.HandleFunc("POST /api/admin/outbox/{id}/abandon", handleAdminOutboxAbandon)
	mux.HandleFunc("GET /api/admin/perf", handleAdminPerf)

	// Operations
	mux.Handle("GET /metrics", appMetrics.Handler())
	mux.HandleFunc("GET /healthz", handleHealth)
}

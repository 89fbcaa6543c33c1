package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/httpx"
	"github.com/diewo77/go-shop/i18n"
	"github.com/diewo77/go-shop/internal/checkout"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/diewo77/go-shop/internal/events"
	"github.com/diewo77/go-shop/internal/handlers"
	"github.com/diewo77/go-shop/internal/mailer"
	"github.com/diewo77/go-shop/internal/metrics"
	"github.com/diewo77/go-shop/internal/photos"
	"github.com/diewo77/go-shop/internal/pricing"
	"github.com/diewo77/go-shop/internal/services"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the application is built from.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Log       *zap.Logger
	Sender    mailer.Sender
	Publisher events.Publisher
	// Now overrides the clock used for pricing and checkout expiry.
	Now func() time.Time
}

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	cfg       *config.Config
	log       *zap.Logger
	handler   http.Handler
	checkouts *checkout.Store
}

// NewApp creates a new application with all routes configured.
func NewApp(d Deps) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Sender == nil {
		d.Sender = mailer.LogSender{Logger: d.Log}
	}
	if d.Publisher == nil {
		d.Publisher = events.NopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	app := &App{
		mux:       http.NewServeMux(),
		db:        d.DB,
		cfg:       d.Config,
		log:       d.Log,
		checkouts: checkout.New(d.DB, d.Config.Session.CheckoutTTL),
	}
	app.checkouts.Now = d.Now

	users := store.NewUsers(d.DB)
	// Session refers to a seller account that must still exist.
	auth.SetUserVerifier(users.Exists)

	app.setupRoutes(d, users)
	app.handler = withRecover(d.Log, withLogging(d.Log, auth.Middleware(withPreferences(d.Config.Shop.Lang, metrics.Middleware(app.mux)))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Checkouts exposes the checkout store for background maintenance.
func (a *App) Checkouts() *checkout.Store { return a.checkouts }

func (a *App) setupRoutes(d Deps, users *store.Users) {
	cfg := d.Config
	catalog := store.NewCatalog(d.DB)
	orders := store.NewOrders(d.DB)

	calc := delivery.NewCalculator(cfg.Shop.Location())
	calc.CutoffHour, calc.CutoffMinute = cfg.Shop.CutoffHour, cfg.Shop.CutoffMinute
	engine := pricing.NewEngine(catalog, calc)
	engine.Now = d.Now

	composer := mailer.Composer{ContactPhone: cfg.Shop.ContactPhone}
	orderSvc := services.NewOrderService(orders, d.Sender, composer, cfg.Shop.SellerEmail, d.Publisher, d.Log)
	if cfg.Mail.Timeout > 0 {
		orderSvc.MailTimeout = time.Duration(cfg.Mail.Timeout) * time.Second
	}

	media := photos.Store{Dir: cfg.Media.Dir, URLPrefix: cfg.Media.URLPrefix}

	sh := handlers.NewShopHandler(catalog, engine, a.checkouts, d.Log)
	ch := handlers.NewCheckoutHandler(a.checkouts, orderSvc, d.Log)
	ah := handlers.NewAuthHandler(users, d.Log)
	api := handlers.NewAPIHandler(catalog, d.Log)
	sel := handlers.NewSellerHandler(catalog, orders, media, cfg.Shop.Location(), d.Log)
	sel.Now = d.Now

	// Public routes
	a.mux.HandleFunc("GET /{$}", a.landingPage)
	a.mux.HandleFunc("GET /shop", sh.Show)
	a.mux.HandleFunc("POST /shop", sh.Submit)
	a.mux.HandleFunc("GET /order", ch.Show)
	a.mux.HandleFunc("POST /order", ch.Submit)
	a.mux.HandleFunc("GET /summary", ch.Summary)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /api/products", api.Products)

	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", metrics.Handler())

	prefix := "/" + strings.Trim(cfg.Media.URLPrefix, "/") + "/"
	a.mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Media.Dir))))

	// Seller routes
	a.mux.Handle("GET /seller", a.requireAuth(sel.Menu))
	a.mux.Handle("GET /seller/products", a.requireAuth(sel.Products))
	a.mux.Handle("POST /seller/products", a.requireAuth(sel.SaveProducts))
	a.mux.Handle("GET /seller/products/new", a.requireAuth(sel.NewProduct))
	a.mux.Handle("POST /seller/products/new", a.requireAuth(sel.CreateProduct))
	a.mux.Handle("GET /seller/products/{id}/delete", a.requireAuth(sel.ConfirmDelete))
	a.mux.Handle("POST /seller/products/{id}/delete", a.requireAuth(sel.DeleteProduct))
	a.mux.Handle("GET /seller/products/{id}/photo", a.requireAuth(sel.EditPhoto))
	a.mux.Handle("POST /seller/products/{id}/photo", a.requireAuth(sel.SavePhoto))
	a.mux.Handle("GET /seller/orders", a.requireAuth(sel.Orders))
	a.mux.Handle("POST /seller/orders/{id}/paid", a.requireAuth(sel.MarkPaid))
	a.mux.Handle("POST /seller/orders/{id}/completed", a.requireAuth(sel.MarkCompleted))
}

func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

func (a *App) landingPage(w http.ResponseWriter, r *http.Request) {
	if err := view.Render(w, r, "index.html", nil); err != nil {
		a.log.Error("render template", zap.String("template", "index.html"), zap.Error(err))
	}
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// withPreferences picks the request language: ?lang= (remembered in a
// cookie), then the cookie, then Accept-Language, then the shop default.
func withPreferences(fallback string, next http.Handler) http.Handler {
	if !i18n.Supported(fallback) {
		fallback = i18n.Default
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		} else if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		} else if al := r.Header.Get("Accept-Language"); al != "" {
			lang = i18n.DetectLanguage(al)
		} else {
			lang = fallback
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic", zap.Any("recovered", rec), zap.String("path", r.URL.Path), zap.Stack("stack"))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// purgeCheckouts deletes expired checkout sessions every interval until ctx ends.
func purgeCheckouts(ctx context.Context, s *checkout.Store, interval time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Warn("purge checkouts", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired checkouts purged", zap.Int64("count", n))
			}
		}
	}
}

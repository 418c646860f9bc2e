package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sudo-init-do/fixhub/internal/admin"
	"github.com/sudo-init-do/fixhub/internal/alerts"
	"github.com/sudo-init-do/fixhub/internal/auth"
	"github.com/sudo-init-do/fixhub/internal/checkout"
	"github.com/sudo-init-do/fixhub/internal/config"
	"github.com/sudo-init-do/fixhub/internal/db"
	"github.com/sudo-init-do/fixhub/internal/location"
	"github.com/sudo-init-do/fixhub/internal/logging"
	"github.com/sudo-init-do/fixhub/internal/marketplace"
	"github.com/sudo-init-do/fixhub/internal/matching"
	"github.com/sudo-init-do/fixhub/internal/messaging"
	mware "github.com/sudo-init-do/fixhub/internal/middleware"
	"github.com/sudo-init-do/fixhub/internal/notifications"
	"github.com/sudo-init-do/fixhub/internal/otp"
	"github.com/sudo-init-do/fixhub/internal/payments"
	"github.com/sudo-init-do/fixhub/internal/photos"
	"github.com/sudo-init-do/fixhub/internal/portfolio"
	"github.com/sudo-init-do/fixhub/internal/store/memory"
	"github.com/sudo-init-do/fixhub/internal/store/postgres"
	"github.com/sudo-init-do/fixhub/internal/user"
	"github.com/sudo-init-do/fixhub/internal/utils"
	"github.com/sudo-init-do/fixhub/internal/vault"
	"github.com/sudo-init-do/fixhub/internal/wallet"
)

// backend is every store the server needs. Both the Postgres and the
// in-memory stores satisfy it.
type backend interface {
	user.Store
	location.ReportSource
	marketplace.Store
	wallet.Store
	vault.Store
	portfolio.Store
	notifications.Store
}

func openBackend(ctx context.Context, cfg config.Config) (backend, *pgxpool.Pool, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil, nil
	}
	pool, err := db.Init(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	return postgres.New(pool), pool, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogFile(), cfg.DebugLevel); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.Logger(logging.SubsysHTTP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, pool, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	log.Infof("Using %s store", cfg.Store)

	secret := []byte(cfg.JWTSecret)
	collabClient := &http.Client{Timeout: cfg.CollaboratorTimeout}

	// Notifications: live feed always, queued email/inbox when Redis is set.
	hub := messaging.NewHub()
	notifiers := marketplace.Notifiers{hub}
	var enqueuer *alerts.Enqueuer
	if cfg.RedisAddr != "" {
		client := alerts.NewClient(cfg.RedisAddr)
		defer client.Close()
		enqueuer = alerts.NewEnqueuer(client, cfg.AppURL, cfg.AdminEmail)
		notifiers = append(notifiers, enqueuer)
	} else {
		log.Warnf("REDIS_ADDR not set, email and inbox notifications are disabled")
	}

	if cfg.OTPBaseURL == "" {
		log.Warnf("OTP_BASE_URL not set, signup codes cannot be sent")
	}
	users := user.NewService(st, otp.NewClient(cfg.OTPBaseURL, collabClient))

	locator := &location.LastKnown{Source: st, MaxAge: cfg.LocationMaxAge}
	jobs := marketplace.NewService(st, st, locator, notifiers,
		marketplace.WithCollaboratorTimeout(cfg.CollaboratorTimeout))
	engine := matching.NewEngine(st, st, locator, notifiers, cfg.CollaboratorTimeout)

	vaults := vault.NewService(st, secret, vault.Policy{
		MaxAttempts: cfg.PinMaxAttempts,
		Lockout:     cfg.PinLockout,
		SessionTTL:  cfg.VaultTTL,
	})

	var processor payments.Processor
	if cfg.PaymentsURL != "" {
		processor = payments.NewHTTPProcessor(cfg.PaymentsURL, cfg.PaymentsKey, collabClient)
	} else {
		log.Warnf("PAYMENTS_URL not set, using the sandbox processor")
		processor = payments.NewSandbox()
	}
	orch := checkout.NewOrchestrator(jobs, vaults, processor, cfg.CollaboratorTimeout)

	var photoStore photos.Store
	if cfg.SupabaseURL != "" {
		photoStore = photos.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	} else {
		photoStore = photos.NewMemoryStore()
	}

	var welcomer auth.Welcomer
	if enqueuer != nil {
		welcomer = enqueuer
		orch.SetAlerter(enqueuer)
	}

	authH := auth.NewHandler(users, secret, cfg.SessionTTL, cfg.AdminBootstrapSecret, welcomer)
	userH := user.NewHandler(users)
	jobH := marketplace.NewHandler(jobs)
	marketH := matching.NewHandler(engine)
	payH := checkout.NewHandler(orch)
	vaultH := vault.NewHandler(vaults)
	walletH := wallet.NewHandler(st)
	postH := portfolio.NewHandler(portfolio.NewService(st))
	inboxH := notifications.NewHandler(st)
	feedH := messaging.NewHandler(hub, st)
	photoH := photos.NewHandler(photoStore)
	adminH := admin.NewHandler(st, users, st, vaults)

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewRequestValidator()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "fixhub"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if pool == nil {
			return c.JSON(http.StatusOK, echo.Map{"status": "ready", "store": cfg.Store})
		}
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	e.GET("/services", marketplace.GetAllServices)
	e.GET("/services/:id", marketplace.GetService)
	e.GET("/users/:id", userH.GetPublicProfile)
	e.GET("/pros/:id/portfolio", postH.List)

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))
	authGroup.POST("/otp", authH.SendCode)
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/password/forgot", authH.ForgotPassword)
	authGroup.POST("/password/reset", authH.ResetPassword)
	authGroup.POST("/admin/bootstrap", authH.BootstrapAdmin)

	// Protected routes
	jwt := mware.JWTMiddleware(secret)
	api := e.Group("")
	api.Use(jwt)

	api.GET("/auth/me", authH.Me)
	api.PATCH("/user/profile", userH.UpdateProfile)
	api.PUT("/user/location", userH.ReportLocation)
	api.GET("/pros/featured", userH.FeaturedPros)
	api.POST("/photos", photoH.Upload)
	api.GET("/ws/feed", feedH.Feed)

	api.GET("/notifications", inboxH.List)
	api.POST("/notifications/:id/read", inboxH.MarkRead)

	customer := mware.RequireRoles(user.RoleCustomer)
	pro := mware.RequireRoles(user.RolePro)

	api.POST("/jobs", jobH.CreateJob, customer)
	api.GET("/jobs/mine", jobH.MyJobs)
	api.GET("/jobs/checkout", jobH.CheckoutNeeded)
	api.GET("/jobs/:id", jobH.GetJob)
	api.POST("/jobs/:id/arrived", jobH.MarkArrived, pro)
	api.PUT("/jobs/:id/invoice", jobH.SaveInvoice, pro)
	api.POST("/jobs/:id/request_payment", jobH.RequestPayment, pro)
	api.POST("/jobs/:id/proof", jobH.AddProof, pro)
	api.POST("/jobs/:id/complete", jobH.Complete, customer)
	api.POST("/jobs/:id/rate", jobH.Rate, customer)
	api.POST("/jobs/:id/pay", payH.Pay, customer, mware.VaultGuard(secret))

	api.GET("/market", marketH.ListOpen, pro)
	api.POST("/market/:id/claim", marketH.Claim, pro)

	api.GET("/vault/pin", vaultH.PinStatus, customer)
	api.POST("/vault/pin", vaultH.SetPin, customer)
	api.POST("/vault/unlock", vaultH.Unlock, customer)
	vaultGroup := api.Group("/vault/methods", customer, mware.VaultGuard(secret))
	vaultGroup.GET("", vaultH.ListMethods)
	vaultGroup.POST("", vaultH.AddMethod)
	vaultGroup.DELETE("/:id", vaultH.RemoveMethod)

	api.POST("/portfolio", postH.Create, pro)
	api.POST("/portfolio/:id/like", postH.Like)

	api.GET("/wallet/balance", walletH.Balance, pro)
	api.GET("/wallet/transactions", walletH.Transactions, pro)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(jwt)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", adminH.Stats)
	adminGroup.GET("/users", adminH.ListUsers)
	adminGroup.POST("/users/:id/suspend", adminH.SuspendUser)
	adminGroup.POST("/users/:id/activate", adminH.ActivateUser)
	adminGroup.POST("/users/:id/unlock_pin", adminH.UnlockPin)
	adminGroup.GET("/jobs", jobH.AdminJobs)
	adminGroup.GET("/transactions", walletH.AllTransactions)
	adminGroup.GET("/wallets", adminH.ListWallets)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on %s", cfg.HTTPAddress())
		if err := e.Start(cfg.HTTPAddress()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Infof("Shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

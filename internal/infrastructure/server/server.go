package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/glassd/internal/api/http"
	"github.com/GriffinCanCode/glassd/internal/api/middleware"
	"github.com/GriffinCanCode/glassd/internal/api/ws"
	"github.com/GriffinCanCode/glassd/internal/domain/appname"
	"github.com/GriffinCanCode/glassd/internal/domain/display"
	"github.com/GriffinCanCode/glassd/internal/domain/input"
	"github.com/GriffinCanCode/glassd/internal/domain/launcher"
	"github.com/GriffinCanCode/glassd/internal/domain/navigation"
	"github.com/GriffinCanCode/glassd/internal/domain/notification"
	"github.com/GriffinCanCode/glassd/internal/domain/route"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/config"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/glassd/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and the daemon components.
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	store     *notification.Store
	menu      *launcher.Menu
	input     *input.Controller
	planner   *route.Planner
	presenter *display.Presenter
	hub       *ws.Hub
	router    *gin.Engine

	// base bounds background work started outside Run, such as catalog
	// loads triggered by Show.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	logger := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	log := logger.Logger

	logger.Info("Initializing glassd",
		zap.String("port", cfg.Server.Port),
		zap.String("host_package", cfg.Store.HostPackage),
		zap.String("catalog", cfg.Launcher.CatalogDir),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("glassd", log)

	filter, err := notification.NewFilter(cfg.Store.HostPackage, cfg.Store.SkipPatterns)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("invalid skip patterns: %w", err)
	}
	corsHandler, err := middleware.CORS(cfg.Server.CORSOrigins)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("invalid CORS origins: %w", err)
	}

	base, cancel := context.WithCancel(context.Background())

	// App names: cached answers, then the installed catalog, then the
	// built-in table, then the package-name heuristic.
	catalog := launcher.NewCatalog()
	nameCache := appname.NewCache()
	catalog.OnReplace(nameCache.Forget)
	names := appname.NewChain(log,
		nameCache,
		appname.FromDirectory(catalog),
		appname.WellKnown(),
	)

	var store *notification.Store
	store = notification.NewStore(notification.Options{
		Capacity:      cfg.Store.Capacity,
		Expiry:        cfg.Store.Expiry,
		Recent:        cfg.Store.Recent,
		SweepInterval: cfg.Store.Sweep,
		Filter:        filter,
		Resolver:      names,
		Hooks: notification.Hooks{
			OnAdmit: func(r notification.Record) {
				metrics.RecordAdmitted(navigation.Classify(r).String())
				metrics.SetStoreSize(store.Len())
			},
			OnSkip: func(_, reason string) {
				metrics.RecordSkipped(reason)
			},
			OnPurge: func(removed, remaining int) {
				metrics.AddExpired(removed)
				metrics.SetStoreSize(remaining)
			},
		},
		Logger: log,
	})

	menu := launcher.NewMenu(launcher.MenuOptions{
		Source:    launcher.DirSource{Root: cfg.Launcher.CatalogDir},
		Catalog:   catalog,
		Launcher:  launcher.ExecLauncher{Template: cfg.Launcher.ExecTemplate, Logger: log},
		Favorites: cfg.Launcher.Favorites,
		Window:    cfg.Launcher.Window,
		Context:   base,
		Logger:    log,
	})
	controller := input.NewController(menu, log)

	planner := route.NewPlanner(route.Options{
		Client:   routeClient(cfg.Route, log),
		APIKey:   cfg.Route.APIKey,
		OnLookup: metrics.RecordRouteLookup,
		Logger:   log,
	})

	var presenter *display.Presenter
	hub := ws.NewHub(ws.Options{
		Input:   controller,
		Frames:  ws.FrameSourceFunc(func() display.Frame { return presenter.Latest() }),
		Metrics: metrics,
		Logger:  log,
	})
	presenter = display.NewPresenter(display.Options{
		Store:   store,
		Menu:    menu,
		Gamepad: controller,
		Banner:  navigation.NewBanner(cfg.Display.NavTimeout),
		Sink:    hub,
		Locale:  cfg.Display.Locale,
		Tick:    cfg.Display.Tick,
		Logger:  log,
	})

	menu.AddListener(launcher.ListenerFuncs{
		SelectionChanged: func(int, int) { presenter.Invalidate() },
		Launched: func(launcher.Entry) {
			metrics.RecordLauncherAction("launch")
		},
		Closed: presenter.Invalidate,
	})
	controller.OnStatusChange(func(input.Status) { presenter.Invalidate() })

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(corsHandler)
	router.Use(middleware.Gzip(gzip.DefaultCompression, "/metrics", "/display/stream"))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(api.Deps{
		Store:   store,
		Menu:    menu,
		Input:   controller,
		Planner: planner,
		Display: presenter,
		Hub:     hub,
		Metrics: metrics,
		Logger:  log,
	})
	handlers.Register(router)

	logger.Info("Server initialized successfully",
		zap.Strings("name_strategies", names.Strategies()),
	)

	return &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		store:     store,
		menu:      menu,
		input:     controller,
		planner:   planner,
		presenter: presenter,
		hub:       hub,
		router:    router,
		base:      base,
		cancel:    cancel,
	}, nil
}

// routeClient returns nil when no routing service is configured.
func routeClient(cfg config.RouteConfig, log *zap.Logger) route.Fetcher {
	if cfg.APIBase == "" || cfg.APIKey == "" {
		log.Info("route service not configured, using synthetic routes")
		return nil
	}
	opts := httpclient.DefaultOptions("route")
	opts.BaseURL = cfg.APIBase
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	opts.RateLimit = 2
	opts.Logger = log
	return httpclient.New(opts)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the background loops and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.store.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.presenter.Run(ctx)
	}()
	go func() {
		if err := s.menu.Load(ctx); err != nil {
			s.logger.Warn("App catalog not loaded", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer shutdownCancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		if serveErr == nil {
			serveErr = fmt.Errorf("shutdown: %w", err)
		}
	}

	cancel()
	wg.Wait()
	return serveErr
}

// Close releases background resources and flushes the log.
func (s *Server) Close() error {
	s.cancel()
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}

// Presenter exposes the display presenter.
func (s *Server) Presenter() *display.Presenter {
	return s.presenter
}

// Store exposes the notification store.
func (s *Server) Store() *notification.Store {
	return s.store
}

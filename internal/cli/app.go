package cli

import (
	"context"
	"errors"
	"fmt"

	"easyfinances/internal/amqp"
	"easyfinances/internal/backend"
	"easyfinances/internal/cache"
	"easyfinances/internal/config"
	"easyfinances/internal/core"
	"easyfinances/internal/holidays"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"
	"easyfinances/internal/recurrence"
	"easyfinances/internal/services"
	"easyfinances/internal/storage"
)

// Components are the outbound adapters an App is assembled from.
type Components struct {
	Backend backend.Backend
	// Durable holds acknowledged ids, the device id and the bearer token.
	Durable ports.KeyValueStore
	// Session holds state that ends with a logout.
	Session  ports.KeyValueStore
	Holidays ports.HolidaySource
	// Publisher is optional; without it acknowledgments stay on this device.
	Publisher services.AckPublisher
	// Today defaults to core.Today.
	Today func() core.Date
	// OnLogout hooks run after the cached reads are dropped.
	OnLogout []func()
}

// App is the assembled client: every service the BFF and finctl expose.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Backend      backend.Backend
	Transactions *services.TransactionService
	Home         *services.HomeService
	Goals        *services.GoalService
	Session      *services.SessionService
	Reconciler   *services.NotificationReconciler
	Refresher    *services.HolidayRefresher
	Caches       *cache.Manager
	Today        func() core.Date

	closers []func() error
}

// Assemble builds the services on top of c. It opens nothing, so tests can
// pass in-memory components.
func Assemble(cfg *config.Config, logger *log.Logger, c Components) *App {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if c.Today == nil {
		c.Today = core.Today
	}
	if c.Holidays == nil {
		c.Holidays = holidays.None{}
	}

	manager := cache.NewManager()
	pages := cache.NewLRUCache[core.Page[core.Transaction]](cfg.CacheSize, cfg.CacheTTL)
	all := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	manager.Register(pages)
	manager.Register(all)

	var opts []services.ReconcilerOption
	if c.Publisher != nil {
		opts = append(opts, services.WithPublisher(c.Publisher))
	}
	reconciler := services.NewNotificationReconciler(c.Durable, c.Session, opts...)

	txs := services.NewTransactionService(c.Backend, recurrence.NewExpander(cfg.RecurrenceHorizonMonths), pages, all)

	app := &App{
		Config:       cfg,
		Logger:       logger,
		Backend:      c.Backend,
		Transactions: txs,
		Home:         services.NewHomeService(c.Backend, txs, c.Holidays, reconciler, services.Window{Days: cfg.UpcomingWindowDays}),
		Goals:        services.NewGoalService(c.Backend),
		Reconciler:   reconciler,
		Caches:       manager,
		Today:        c.Today,
	}

	// the next user must not see the previous one's cached reads
	hooks := append([]func(){func() {
		n := pages.DeletePrefix("") + all.DeletePrefix("")
		logger.Debug("Dropped cached reads on logout", "count", n)
	}}, c.OnLogout...)
	app.Session = services.NewSessionService(c.Backend, reconciler, hooks...)

	if refresher, ok := c.Holidays.(services.YearRefresher); ok {
		app.Refresher = services.NewHolidayRefresher(refresher, c.Today, services.DefaultHolidayRefresherConfig())
	}
	return app
}

// NewApp opens the local state database, the backend, the holiday source
// and, when AMQP_URL is set, the acknowledgment publisher.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	repo, err := storage.NewSQLiteRepository(cfg.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	closers := []func() error{repo.Close}
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	durable := repo.Store(storage.ScopeLocal)
	session := repo.Store(storage.ScopeSession)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fail(err)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg, durable)
	if err != nil {
		return fail(err)
	}
	if result.Cleanup != nil {
		closers = append(closers, result.Cleanup)
	}

	upstream, err := holidays.New(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("holiday source: %w", err))
	}
	var hs ports.HolidaySource = holidays.None{}
	if _, disabled := upstream.(holidays.None); !disabled {
		hs = holidays.NewCached(upstream, cache.NewLRUCache[[]core.Holiday](8, cfg.HolidayCacheTTL), repo, cfg.HolidayCacheTTL)
	}

	var publisher services.AckPublisher
	if cfg.AMQPURL != "" {
		deviceID, err := amqp.DeviceID(ctx, durable)
		if err != nil {
			return fail(err)
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.QueueName(cfg.AMQPQueue, deviceID))
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, acknowledgments stay local", log.FieldError, err)
		} else {
			closers = append(closers, client.Close)
			publisher = amqp.NewPublisher(client, deviceID)
			logger.Info("Initialized AMQP publisher",
				"exchange", cfg.AMQPExchange,
				log.FieldDeviceID, deviceID)
		}
	}

	app := Assemble(cfg, logger, Components{
		Backend:   result.Backend,
		Durable:   durable,
		Session:   session,
		Holidays:  hs,
		Publisher: publisher,
		// a logout wipes every session-scoped entry, not just the popup flag
		OnLogout: []func(){func() {
			if err := session.Clear(context.Background()); err != nil {
				logger.Warn("Failed to clear session state", log.FieldError, err)
			}
		}},
	})
	app.closers = closers

	logger.Info("Application initialized",
		"backend", cfg.DataBackend,
		"holidays", cfg.HolidaySource,
		"amqp_enabled", publisher != nil)
	return app, nil
}

// Start runs the background loops: cache cleanup and holiday refresh.
func (a *App) Start(ctx context.Context) error {
	a.Caches.StartCleanup(a.Config.CacheTTL)
	if a.Refresher != nil {
		if err := a.Refresher.Start(ctx); err != nil {
			return fmt.Errorf("start holiday refresher: %w", err)
		}
	}
	a.Logger.InfoContext(ctx, "Background loops started",
		log.FieldOperation, log.OpStartup,
		"holiday_refresher", a.Refresher != nil)
	return nil
}

// Close stops the background loops and releases resources in reverse
// order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errList []error
	if a.Refresher != nil {
		if err := a.Refresher.Stop(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	a.Caches.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	a.closers = nil
	a.Logger.InfoContext(ctx, "Application closed", log.FieldOperation, log.OpShutdown, "errors", len(errList))
	return errors.Join(errList...)
}

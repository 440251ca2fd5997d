package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/yumvipay/sendcore-backend/internal/adapter/http"
	"github.com/yumvipay/sendcore-backend/internal/adapter/repository/bolt"
	"github.com/yumvipay/sendcore-backend/internal/adapter/repository/memory"
	"github.com/yumvipay/sendcore-backend/internal/adapter/repository/postgres"
	redisrepo "github.com/yumvipay/sendcore-backend/internal/adapter/repository/redis"
	"github.com/yumvipay/sendcore-backend/internal/config"
	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/logging"
	"github.com/yumvipay/sendcore-backend/internal/netmon"
	"github.com/yumvipay/sendcore-backend/internal/notify"
	"github.com/yumvipay/sendcore-backend/internal/usecase/rates"
	"github.com/yumvipay/sendcore-backend/internal/usecase/recovery"
	"github.com/yumvipay/sendcore-backend/internal/usecase/submit"
	"github.com/yumvipay/sendcore-backend/internal/usecase/wizard"
)

const defaultAPIToken = "dev-token"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	// Transfer records live in Postgres.
	db, err := postgres.NewDB(cfg.PostgresConnStr())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	transferRepo := postgres.NewTransferRepository(db)

	// Draft records go to the configured store backend.
	var drafts domain.DraftRepository
	switch cfg.Store.Backend {
	case config.StoreBackendBolt:
		boltDB, err := bolt.NewDB(cfg.Store.BoltPath)
		if err != nil {
			return err
		}
		defer boltDB.Close()
		drafts = bolt.NewDraftRepository(boltDB, logger)
	case config.StoreBackendRedis:
		var opts []redisrepo.Option
		if cfg.Store.DraftTTL > 0 {
			opts = append(opts, redisrepo.WithTTL(cfg.Store.DraftTTL))
		}
		drafts = redisrepo.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, logger, opts...)
	case config.StoreBackendMemory:
		logger.Warn("using in-memory draft store, drafts will not survive a restart")
		drafts = memory.NewDraftRepository()
	}
	logger.Info("draft store ready", "backend", cfg.Store.Backend)

	notifier := notify.NewLogNotifier(logger)
	monitor := netmon.New(notifier, logger)

	rateService, err := rates.NewServiceWithOverrides(cfg.Rates)
	if err != nil {
		return fmt.Errorf("invalid rate configuration: %w", err)
	}

	wizardService := wizard.NewService(drafts, notifier, logger)
	submitService := submit.NewService(transferRepo, wizardService, monitor, rateService, notifier, logger)
	recoveryService := recovery.NewService(drafts, notifier, logger)

	apiToken := os.Getenv("API_TOKEN")
	if apiToken == "" {
		apiToken = defaultAPIToken
		logger.Warn("API_TOKEN not set, using development default")
	}

	handler := httpadapter.NewHandler(&httpadapter.Server{
		Wizard:    wizardService,
		Submitter: submitService,
		Recovery:  recoveryService,
		Rates:     rateService,
		Monitor:   monitor,
		Transfers: transferRepo,
		Drafts:    drafts,
		Logger:    logger,
	}, apiToken)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

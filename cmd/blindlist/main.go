package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Kerhoff/BlindList/internal/api"
	"github.com/Kerhoff/BlindList/internal/config"
	"github.com/Kerhoff/BlindList/internal/handlers"
	"github.com/Kerhoff/BlindList/internal/metrics"
	"github.com/Kerhoff/BlindList/internal/notify"
	"github.com/Kerhoff/BlindList/internal/ratelimit"
	"github.com/Kerhoff/BlindList/internal/repository/postgres"
	"github.com/Kerhoff/BlindList/internal/service"
	"github.com/Kerhoff/BlindList/internal/telegram"
	"github.com/Kerhoff/BlindList/pkg/logger"
)

type options struct {
	envFile       string
	migrationsDir string
	migrateOnly   bool
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("blindlist", pflag.ContinueOnError)
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment (skipped if missing)")
	flags.StringVar(&opts.migrationsDir, "migrations", "", "directory of migration files (default: migrations embedded in the binary)")
	flags.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load %s: %v", opts.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting BlindList...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l, opts); err != nil {
		l.Fatalf("BlindList stopped with error: %v", err)
	}
	l.Info("BlindList stopped")
}

func run(ctx context.Context, cfg *config.Config, l *logrus.Logger, opts options) error {
	// Database
	db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(opts.migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if opts.migrateOnly {
		return nil
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Rate limiting
	limiter, closeLimiter, err := newLimiter(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// Email
	var sender notify.Sender = notify.DisabledSender{Logger: l}
	if cfg.SMTP.Enabled() {
		smtpSender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return fmt.Errorf("configure SMTP: %w", err)
		}
		sender = smtpSender
	} else {
		l.Warn("SMTP_HOST not set, emails will not be delivered")
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		SendTimeout: 30 * time.Second,
	}, sender, l, m)
	defer dispatcher.Close()

	// Service layer
	svc, err := service.New(service.Config{
		FrontendURL:         cfg.FrontendURL,
		RecoveryTTL:         cfg.Recovery.TokenTTL,
		MinRecoveryResponse: cfg.Recovery.MinResponse,
		RateLimit: service.RateLimits{
			Window:          cfg.RateLimit.Window,
			RecoveryRequest: cfg.RateLimit.RecoveryRequest,
			RecoveryRedeem:  cfg.RateLimit.RecoveryRedeem,
			TokenLookup:     cfg.RateLimit.TokenLookup,
		},
	}, service.Deps{
		Lists:   postgres.NewListRepository(db.DB),
		Items:   postgres.NewItemRepository(db.DB),
		Sender:  sender,
		Queue:   dispatcher,
		Limiter: limiter,
		Metrics: m,
		Logger:  l,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	go svc.RunRecoveryJanitor(ctx, cfg.Recovery.SweepInterval)

	// Telegram bot (optional)
	botDone := make(chan struct{})
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			return fmt.Errorf("create Telegram bot: %w", err)
		}
		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("newlist", handlers.NewNewListHandler(svc, l))
		bot.RegisterCommand("recover", handlers.NewRecoverHandler(svc, l))
		bot.RegisterCommand("redeem", handlers.NewRedeemHandler(svc, l))

		go func() {
			defer close(botDone)
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		close(botDone)
	}

	// HTTP server
	apiServer := api.NewServer(svc, api.Config{
		AllowedOrigin:  cfg.FrontendURL,
		RequestTimeout: cfg.RequestTimeout,
	}, l, m, registry)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	l.Info("BlindList started successfully")

	var runErr error
	select {
	case <-ctx.Done():
		l.Info("Received shutdown signal...")
	case err := <-serveErr:
		runErr = fmt.Errorf("HTTP server: %w", err)
	}

	l.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if runErr == nil {
		<-botDone
	}
	return runErr
}

// newLimiter returns a Redis-backed limiter when REDIS_URL is set, otherwise
// a process-local one that is swept once per window.
func newLimiter(ctx context.Context, cfg *config.Config, l *logrus.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		mem := ratelimit.NewMemory()
		sweepCtx, cancel := context.WithCancel(ctx)
		go func() {
			t := time.NewTicker(cfg.RateLimit.Window)
			defer t.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-t.C:
					mem.Sweep()
				}
			}
		}()
		l.Info("Using in-process rate limiter")
		return mem, cancel, nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	l.Info("Using Redis rate limiter")
	return ratelimit.NewRedis(client), func() { _ = client.Close() }, nil
}

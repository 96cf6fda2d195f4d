// Command demo runs an end-to-end login against an in-process identity
// provider: it opens the system browser on the provider's login page, receives
// the redirect on a loopback listener and prints the fetched account.
//
// Credential persistence is selected from the environment: postgres when
// IDENTITY_POSTGRES_DSN is set, redis when IDENTITY_REDIS_URL is set, and
// in-memory otherwise. Audit events go to Kafka when IDENTITY_KAFKA_BROKERS
// is set, or to an in-memory trail drained by a background worker.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"time"

	"identitykit/internal/identity/account"
	"identitykit/internal/identity/metrics"
	"identitykit/internal/identity/service"
	"identitykit/internal/identity/store/credential"
	"identitykit/internal/platform/config"
	"identitykit/internal/platform/logger"
	platformredis "identitykit/internal/platform/redis"
	"identitykit/internal/useragent"
	"identitykit/pkg/platform/audit"
	auditpublisher "identitykit/pkg/platform/audit/publisher"
	auditmemory "identitykit/pkg/platform/audit/store/memory"
	auditworker "identitykit/pkg/platform/audit/worker"
)

const (
	providerAddr = "127.0.0.1:8423"
	demoEmail    = "ada@example.test"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The demo talks to its own provider rather than a real deployment.
	cfg.ServiceURL = "http://" + providerAddr
	cfg.WebsiteURL = cfg.ServiceURL

	provider, err := newProvider(providerAddr, log)
	if err != nil {
		return fmt.Errorf("start demo provider: %w", err)
	}
	provider.Start()
	defer provider.Close(context.Background())

	store, closeStore, err := newCredentialStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	defer closeStore()

	auditor, closeAudit, err := newAuditor(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("audit sink: %w", err)
	}
	defer closeAudit()

	serviceURL, err := url.Parse(cfg.ServiceURL)
	if err != nil {
		return fmt.Errorf("parse service URL: %w", err)
	}

	svc, err := service.New(ctx, service.Config{
		ServiceURL:  cfg.ServiceURL,
		WebsiteURL:  cfg.WebsiteURL,
		RedirectURL: cfg.RedirectURL,
		AccessGroup: cfg.AccessGroup,
	}, service.Deps{
		Credentials: store,
		Accounts:    account.New(serviceURL),
		UserAgent:   useragent.NewBrowser(log),
	},
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}
	service.SetCurrent(svc)
	defer service.SetCurrent(nil)

	redirectURL, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return fmt.Errorf("parse redirect URL: %w", err)
	}
	loopback := useragent.NewLoopback(cfg.LoopbackAddr, redirectURL, svc.HandleRedirect, log)
	loopback.Start()
	defer loopback.Close(context.Background())

	done := make(chan service.Event, 1)
	for _, kind := range []service.EventKind{
		service.EventUserLoggedIn,
		service.EventUserCancelledLogin,
		service.EventLoginFailed,
	} {
		defer svc.Subscribe(kind, func(e service.Event) { done <- e })()
	}

	if svc.IsLogged() {
		log.Info("already logged in from a previous run")
	} else {
		fmt.Printf("Log in as %s with password %q in the opened browser.\n", demoEmail, demoPassword)
		if err := svc.Login(ctx, demoEmail); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			svc.CancelLogin(context.Background())
			return ctx.Err()
		case event := <-done:
			switch event.Kind {
			case service.EventUserCancelledLogin:
				return fmt.Errorf("login cancelled")
			case service.EventLoginFailed:
				return fmt.Errorf("login failed: %w", event.Err)
			}
		}
	}

	if _, err := svc.RefreshAccount(ctx); err != nil {
		return fmt.Errorf("refresh account: %w", err)
	}
	acct := svc.Account()
	fmt.Printf("Logged in as %s (%s), verified=%t\n", acct.DisplayName, acct.EmailAddress, acct.Verified)

	return svc.Logout(ctx)
}

func newCredentialStore(ctx context.Context, cfg config.Identity, log *slog.Logger) (service.CredentialStore, func(), error) {
	switch {
	case cfg.Postgres.DSN != "":
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := credential.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("using postgres credential store")
		return store, func() { db.Close() }, nil
	case cfg.Redis.URL != "":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using redis credential store")
		return credential.NewRedis(client.Client), func() { client.Close() }, nil
	default:
		log.Info("using in-memory credential store")
		return credential.NewInMemory(), func() {}, nil
	}
}

func newAuditor(ctx context.Context, cfg config.Identity, log *slog.Logger) (audit.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.Topic)
		return kafka, kafka.Close, nil
	}

	inbox := make(chan audit.Event, 16)
	trail := auditmemory.New()
	workerCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = auditworker.NewWorker(trail, inbox).Run(workerCtx)
	}()
	closeFn := func() {
		cancel()
		for _, event := range trail.Events() {
			log.Info("audit trail entry",
				"action", string(event.Action),
				"at", event.Timestamp.Format(time.RFC3339),
			)
		}
	}
	return audit.ChanPublisher(inbox), closeFn, nil
}

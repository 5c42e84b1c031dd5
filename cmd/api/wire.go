package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraKafka "storefront/internal/infra/kafka"
	"storefront/internal/infra/mail"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/token"
	"storefront/internal/metrics"
	"storefront/internal/notification"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// 本番はJSON、開発はテキスト
func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type app struct {
	log        *slog.Logger
	redis      *redis.Client
	dispatcher *notification.Dispatcher
	kafka      *infraKafka.KafkaNotifier
	echo       *echo.Echo
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log}

	//DB接続
	gdb, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	//Repository生成
	userRepo := infraRepo.NewUserGormRepository(gdb)
	orderRepo := infraRepo.NewOrderGormRepository(gdb)

	if created, err := seedAdmin(ctx, cfg, userRepo); err != nil {
		return nil, err
	} else if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	catalog, err := newCatalog(cfg)
	if err != nil {
		return nil, err
	}

	carts, err := a.newCartStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	//metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//レシート送信
	notifiers := []notification.Notifier{notification.NewMailNotifier(newMailer(cfg, log))}
	if len(cfg.KafkaBrokers) > 0 {
		a.kafka = infraKafka.NewKafkaNotifier(infraKafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		notifiers = append(notifiers, a.kafka)
	}
	a.dispatcher = notification.NewDispatcher(notification.DispatcherConfig{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueue,
		Timeout:     cfg.NotifyTimeout,
		MaxAttempts: cfg.NotifyMaxAttempts,
		Backoff:     500 * time.Millisecond,
	}, m, log, notifiers...)

	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	productUC := usecase.NewProductUsecase(catalog)
	cartUC := usecase.NewCartUsecase(carts, catalog, m, log)
	checkoutUC := usecase.NewCheckoutUsecase(userRepo, carts, orderRepo, a.dispatcher, idGen, clock, m, log)
	orderUC := usecase.NewOrderUsecase(orderRepo)
	adminUC := usecase.NewAdminOrderUsecase(userRepo, orderRepo, log)
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)

	//Handler生成
	a.echo = server.New(server.Deps{
		Config:   cfg,
		UserRepo: userRepo,
		Handlers: server.Handlers{
			Product:    handler.NewProductHandler(productUC),
			Cart:       handler.NewCartHandler(cartUC),
			Order:      handler.NewOrderHandler(checkoutUC, orderUC),
			AdminOrder: handler.NewAdminOrderHandler(adminUC),
			Auth:       handler.NewAuthHandler(registerUC, loginUC),
		},
		Metrics:  m,
		Gatherer: reg,
		Log:      log,
	})

	return a, nil
}

// REDIS_ADDRが空ならプロセス内のカート（単一インスタンス用）
func (a *app) newCartStore(ctx context.Context, cfg config.Config) (repository.CartStore, error) {
	client, err := db.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.log.Warn("REDIS_ADDR is empty, carts are kept in memory")
		return infraRepo.NewCartMemoryStore(cfg.SessionTTL, cfg.CartLockWait), nil
	}
	a.redis = client
	return infraRepo.NewCartRedisStore(client, cfg.SessionTTL, cfg.CartLockWait, cfg.CartLockTTL), nil
}

func newCatalog(cfg config.Config) (*infraRepo.CatalogRepository, error) {
	products := infraRepo.DefaultProducts()
	if cfg.CatalogFile != "" {
		var err error
		if products, err = infraRepo.LoadCatalogFile(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}
	return infraRepo.NewCatalogRepository(products)
}

func newMailer(cfg config.Config, log *slog.Logger) notification.Mailer {
	switch cfg.MailProvider {
	case "postmark":
		return mail.NewPostmarkMailer(cfg.PostmarkServerToken, cfg.MailFrom)
	case "sendgrid":
		return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, "")
	default:
		return mail.NewLogMailer(log)
	}
}

// 残っているレシートを送り切ってから閉じる
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.log.Error("dispatcher close", "err", err)
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.log.Error("kafka writer close", "err", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

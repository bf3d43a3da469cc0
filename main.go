package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-order-bot/autoclose"
	"food-order-bot/config"
	"food-order-bot/conversation"
	"food-order-bot/handlers"
	"food-order-bot/middleware"
	"food-order-bot/notify"
	"food-order-bot/orders"
	"food-order-bot/routes"
	"food-order-bot/stock"
	"food-order-bot/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)
	log := logrus.NewEntry(logger)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	log.WithField("driver", cfg.DBDriver).Info("database ready")

	catalog := store.NewCatalog(db)
	ledger := store.NewLedger(db)

	// ── Conversation state: redis when configured, memory otherwise ──
	var (
		states  conversation.StateStore = conversation.NewMemoryStore(cfg.ConversationTTL)
		deduper conversation.Deduper    = conversation.NewMemoryDeduper()
		locker  conversation.Locker     = conversation.NewLocalLocker()
	)
	if cfg.RedisAddress != "" {
		rdb, err := config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		states = conversation.NewRedisStore(rdb, cfg.ConversationTTL)
		deduper = conversation.NewRedisDeduper(rdb)
		locker = conversation.NewRedisLocker(rdb, 30*time.Second)
		log.WithField("address", cfg.RedisAddress).Info("conversation state in redis")
	} else {
		log.Warn("REDIS_ADDRESS not set, conversation state kept in memory")
	}

	// ── Outbound channel and order events ──────────────────────────
	var sender notify.Sender = notify.LogSender{Log: log.WithField("component", "sender")}
	if cfg.WhatsAppToken != "" {
		sender = notify.NewWhatsAppClient(cfg.WhatsAppAPIBase, cfg.WhatsAppToken, cfg.SendTimeout)
	} else {
		log.Warn("WHATSAPP_TOKEN not set, outbound messages are only logged")
	}
	dispatcher := notify.NewDispatcher(sender, cfg.SendTimeout, log.WithField("component", "notify"))
	defer dispatcher.Wait()

	var events notify.EventPublisher = notify.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.NewRabbitPublisher(cfg.RabbitMQURL, log.WithField("component", "events"))
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
	}

	// ── Domain services ────────────────────────────────────────────
	orderService := orders.NewService(store.NewOrders(db), catalog, dispatcher, events,
		cfg.Timezone, log.WithField("component", "orders"))
	verifier := stock.NewVerifier(catalog, ledger, cfg.StockFailOpen, log.WithField("component", "stock"))
	engine := conversation.NewEngine(conversation.Deps{
		Catalog:     catalog,
		Orders:      orderService,
		Stock:       verifier,
		States:      states,
		Deduper:     deduper,
		Locker:      locker,
		Sender:      sender,
		SendTimeout: cfg.SendTimeout,
		Region:      cfg.PhoneRegion,
		Log:         log.WithField("component", "conversation"),
	})
	sweeper := autoclose.NewSweeper(catalog, orderService, store.NewCashClosures(db),
		cfg.AutoCloseHour, cfg.Timezone, log.WithField("component", "autoclose"))

	// ── HTTP ───────────────────────────────────────────────────────
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Order Bot",
			"version": "1.0.0",
		})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "🍔 Food Order Bot: WhatsApp ordering and order management",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"webhook": "/webhook",
			"roles":   []string{"staff", "admin"},
		})
	})

	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
	}, catalog, engine, log.WithField("component", "webhook"))
	defer webhook.Wait()

	auth := middleware.NewAuth(cfg.JWTSecret, 24*time.Hour)
	api := log.WithField("component", "api")
	routes.SetupRoutes(r, routes.Handlers{
		Auth:    auth,
		Login:   handlers.NewAuthHandler(store.NewUsers(db), auth, api),
		Orders:  handlers.NewOrderHandler(orderService, api),
		Stock:   handlers.NewStockHandler(ledger, api),
		Webhook: webhook,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("🚀 server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

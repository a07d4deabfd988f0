package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	digiflazz "epulsaku/clients/digiflazz"
	telegram "epulsaku/clients/telegram"
	tokovoucher "epulsaku/clients/tokovoucher"
	config "epulsaku/config"
	kafka "epulsaku/kafka"
	models "epulsaku/models"
	mongodb "epulsaku/repositories/mongodb"
	redisrepo "epulsaku/repositories/redis"
	server "epulsaku/server"
	ledgersvc "epulsaku/services/ledger"
	notifier "epulsaku/services/notifier"
	pinguard "epulsaku/services/pinguard"
	pricing "epulsaku/services/pricing"
	processors "epulsaku/services/processors"
	purchase "epulsaku/services/purchase"
	reconciler "epulsaku/services/reconciler"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// LoadSecrets loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	if v := os.Getenv("MONGO_URI"); v != "" {
		k.Mongo.URI = v
	}
	if v := os.Getenv("REDIS_URI"); v != "" {
		k.Redis.URI = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		k.Redis.Password = v
	}
	if v := os.Getenv("DIGIFLAZZ_USERNAME"); v != "" {
		k.Digiflazz.Username = v
	}
	if v := os.Getenv("DIGIFLAZZ_API_KEY"); v != "" {
		k.Digiflazz.APIKey = v
	}
	if v := os.Getenv("TOKOVOUCHER_MEMBER_CODE"); v != "" {
		k.TokoVoucher.MemberCode = v
	}
	if v := os.Getenv("TOKOVOUCHER_SECRET"); v != "" {
		k.TokoVoucher.Secret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		k.Telegram.BotToken = v
	}
	k.IsProdMode = k.IsProdMode || os.Getenv("IS_PROD_MODE") == "true"
	return k
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	_ = godotenv.Load()

	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting
	appKonf = LoadSecrets(appKonf)
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(k.String("logger.level")))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = appKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		logger.Fatal("cannot create mongo client", zap.Error(err))
	}

	// Redis Connection
	redisClient, err := redisrepo.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}

	txRepo := mongodb.NewTxRepository(mongoClient, appKonf.Mongo.Database)
	userRepo := mongodb.NewUserRepository(mongoClient, appKonf.Mongo.Database)
	priceRepo := mongodb.NewPriceRepository(mongoClient, appKonf.Mongo.Database)
	priceCache := redisrepo.NewPriceCache(redisClient, logger, appKonf.Pricing.CacheTTL)
	notifyDLQ := redisrepo.NewNotifyDeadLetterQueue(redisClient, logger)

	botClient := telegram.NewClient(appKonf.Telegram.BotToken)
	digiClient := digiflazz.NewClient(appKonf.Digiflazz.BaseURL, appKonf.Digiflazz.Username, appKonf.Digiflazz.APIKey)
	tokoClient := tokovoucher.NewClient(appKonf.TokoVoucher.BaseURL, appKonf.TokoVoucher.MemberCode, appKonf.TokoVoucher.Secret)

	dispatcher := notifier.NewDispatcher(ctx, botClient, userRepo, notifyDLQ, appKonf.Telegram.ChatIDs, logger)
	resolver := pricing.NewResolver(priceRepo, priceCache, logger)
	overrides := pricing.NewOverrides(priceRepo, priceCache, logger)
	txLedger := ledgersvc.NewLedger(txRepo, resolver, logger, appKonf.Retention.Months)
	guard := pinguard.NewGuard(userRepo, dispatcher, logger, appKonf.Security.PinMaxAttempts)

	recon := reconciler.NewReconciler(ctx, txLedger, digiClient, tokoClient, dispatcher, logger, appKonf.Reconciler.Interval)
	purchaseSvc := purchase.NewService(guard, txLedger, digiClient, tokoClient, dispatcher, recon, logger)
	logins := pinguard.NewLoginLimiter(appKonf.Security.LoginMaxAttempts, appKonf.Security.LoginWindow)

	srv := server.New(txLedger, purchaseSvc, guard, recon, userRepo, overrides, logins, logger)
	go func() {
		logger.Info("http server listening", zap.String("addr", appKonf.Server.Addr))
		if err := srv.Listen(appKonf.Server.Addr); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Resume polling for transactions left Pending across restarts.
	go recon.RunResync(ctx, appKonf.Reconciler.ResyncInterval)

	dispatcher.Notify(ctx, models.NotifyEvent{
		Kind:    models.EventSystem,
		Tag:     "startup",
		Message: "Layanan epulsaku berjalan.",
	})

	if appKonf.Kafka.Consume {
		callbackProcessor := processors.NewCallbackProcessor(logger, txLedger, dispatcher)
		metrics := kprom.NewMetrics("epulsaku")
		conf := &models.ConsumerConfig{
			Brokers:        appKonf.Kafka.Brokers,
			Name:           appKonf.Kafka.ConsumerName,
			Topic:          appKonf.Kafka.Topic,
			RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
		}
		consumer, err := kafka.NewCallbackConsumer(conf, callbackProcessor, metrics, logger)
		if err != nil {
			logger.Fatal("cannot create callback consumer", zap.Error(err))
		}
		if err := consumer.Poll(ctx); err != nil {
			logger.Warn("callback consumer stopped", zap.Error(err))
		}
	} else {
		<-ctx.Done()
	}

	if err := srv.Shutdown(); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	recon.Wait()
	dispatcher.Wait()
	logger.Info("shutdown complete")
}

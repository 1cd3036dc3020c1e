package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftchain/marketplace-service/internal/app"
	"github.com/craftchain/marketplace-service/internal/chain"
	"github.com/craftchain/marketplace-service/internal/config"
	"github.com/craftchain/marketplace-service/internal/entities"
	"github.com/craftchain/marketplace-service/internal/events"
	"github.com/craftchain/marketplace-service/internal/handler"
	"github.com/craftchain/marketplace-service/internal/ipfs"
	"github.com/craftchain/marketplace-service/internal/payment"
	"github.com/craftchain/marketplace-service/internal/postgres"
	"github.com/craftchain/marketplace-service/internal/repo"
	"github.com/craftchain/marketplace-service/internal/service"
	"github.com/craftchain/marketplace-service/internal/shippo"
	"github.com/craftchain/marketplace-service/pkg/cache"
	"github.com/craftchain/marketplace-service/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// @title           Marketplace Service API
// @version         1.0
// @description     Orders, shipping quotes, card and crypto payments, proof-of-purchase tokens.
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	store := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	productCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	stripeClient := &client.API{}
	stripeClient.Init(conf.Stripe.SecretKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient: &http.Client{Timeout: conf.Stripe.Timeout},
		}),
	})
	cardRail := payment.NewCardRail(logger, stripeClient.PaymentIntents)

	chainClient, err := chain.New(conf.Chain)
	panicIfErr("failed to connect to chain rpc", err)
	defer chainClient.Close()

	cryptoRail, err := payment.NewCryptoRail(logger, chainClient, conf.Chain.ETHUSDRate)
	panicIfErr("invalid crypto rail config", err)

	shippoClient := shippo.New(conf.Shippo)
	ipfsClient := ipfs.New(conf.IPFS)
	producer := events.NewProducer(logger, conf.Kafka)

	userService := service.NewUserService(logger, store, conf.Auth)
	productService := service.NewProductService(logger, store, productCache, ipfsClient)
	shippingService := service.NewShippingService(logger, shippoClient)
	mintService := service.NewMintService(logger, txManager, store, store, productService, ipfsClient, chainClient)
	orderService := service.NewOrderService(logger, store, productService, cardRail, map[entities.PaymentRail]service.Rail{
		entities.RailCard:   cardRail,
		entities.RailCrypto: cryptoRail,
	}, mintService, shippoClient, producer)

	httpHandler := handler.NewHTTPHandler(logger, conf.Auth,
		userService, productService, shippingService, orderService, mintService)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.SetStarters(productCache)
	app.SetClosers(producer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/config"
	addresshandler "storefront-backend/internal/domains/address/handler"
	addressrepo "storefront-backend/internal/domains/address/repository"
	addressservice "storefront-backend/internal/domains/address/service"
	checkouthandler "storefront-backend/internal/domains/checkout/handler"
	checkoutrepo "storefront-backend/internal/domains/checkout/repository"
	checkoutservice "storefront-backend/internal/domains/checkout/service"
	offerrepo "storefront-backend/internal/domains/offer/repository"
	offerservice "storefront-backend/internal/domains/offer/service"
	orderhandler "storefront-backend/internal/domains/order/handler"
	orderrepo "storefront-backend/internal/domains/order/repository"
	orderservice "storefront-backend/internal/domains/order/service"
	paymenthandler "storefront-backend/internal/domains/payment/handler"
	"storefront-backend/internal/domains/payment/provider"
	"storefront-backend/internal/domains/payment/provider/cashfree"
	"storefront-backend/internal/domains/payment/provider/mock"
	"storefront-backend/internal/domains/payment/provider/phonepe"
	paymentrepo "storefront-backend/internal/domains/payment/repository"
	paymentservice "storefront-backend/internal/domains/payment/service"
	pcrepo "storefront-backend/internal/domains/providerconfig/repository"
	pcservice "storefront-backend/internal/domains/providerconfig/service"
	"storefront-backend/internal/domains/shipping"
	userhandler "storefront-backend/internal/domains/user/handler"
	userrepo "storefront-backend/internal/domains/user/repository"
	userservice "storefront-backend/internal/domains/user/service"
	infracache "storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/infrastructure/database"
	"storefront-backend/internal/infrastructure/email"
	"storefront-backend/internal/infrastructure/storage"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/jwt"
	"storefront-backend/pkg/logger"
)

// ========================================
// CONTAINER
// ========================================

// Container holds the full dependency graph. Both binaries build one:
// the API server pulls the handlers out of it, the worker pulls the
// services and repositories.
type Container struct {
	// Infrastructure
	Config       *config.Config
	DB           *database.PostgresDB
	Cache        cache.Cache
	AsynqClient  *asynq.Client
	JWTManager   *jwt.Manager
	Storage      *storage.MinIOStorage
	EmailService email.EmailService

	// Repositories
	UserRepo           userrepo.UserRepoInterface
	AddressRepo        addressrepo.RepositoryInterface
	OrderRepo          orderrepo.OrderRepository
	PaymentRepo        paymentrepo.PaymentRepoInterface
	RefundRepo         paymentrepo.RefundRepoInterface
	CallbackLogRepo    paymentrepo.CallbackLogRepoInterface
	ProviderConfigRepo pcrepo.ConfigRepository
	OfferRepo          offerrepo.OfferRepository
	IntentStore        checkoutrepo.IntentStore

	// Domain plumbing shared across services
	Providers        *provider.Registry
	ProviderResolver pcservice.Resolver
	ShippingCalc     *shipping.Calculator

	// Services
	UserService     userservice.UserService
	AddressService  addressservice.ServiceInterface
	OfferService    offerservice.ServiceInterface
	CheckoutService checkoutservice.ServiceInterface
	OrderService    orderservice.OrderService
	PaymentService  paymentservice.PaymentService
	ReportService   paymentservice.ReportService

	// HTTP handlers
	UserHandler     *userhandler.Handler
	AddressHandler  *addresshandler.Handler
	CheckoutHandler *checkouthandler.Handler
	OrderHandler    *orderhandler.OrderHandler
	PaymentHandler  *paymenthandler.PaymentHandler
}

// NewContainer initializes the dependency graph in order: config,
// infrastructure, repositories, services, handlers. Postgres being
// down fails the boot; Redis and MinIO log a warning and leave the
// dependent features degraded.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment)

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initRepositories()
	if err := c.initDomainPlumbing(); err != nil {
		return nil, err
	}
	c.initServices()
	c.initHandlers()

	log.Printf("[Container] Initialized (env=%s, providers=%v)",
		cfg.App.Environment, c.Providers.Names())
	return c, nil
}

// ========================================
// INFRASTRUCTURE
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	redisCache := infracache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if rc, ok := redisCache.(*infracache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Intents and poll counters degrade without Redis, but the
			// read paths still work
			log.Printf("[Container] Redis connection failed: %v", err)
		}
	}
	c.Cache = redisCache

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	store, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		// The API never touches object storage; the worker checks for
		// nil at startup and refuses to run without it
		log.Printf("[Container] MinIO unavailable, receipt storage disabled: %v", err)
	} else {
		c.Storage = store
	}

	c.EmailService = email.NewDevEmailService(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From)

	return nil
}

// ========================================
// REPOSITORIES
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userrepo.NewPostgresRepository(pool)
	c.AddressRepo = addressrepo.NewPostgresRepository(pool)
	c.OrderRepo = orderrepo.NewPostgresOrderRepository(pool)
	c.PaymentRepo = paymentrepo.NewPaymentRepository(pool)
	c.RefundRepo = paymentrepo.NewRefundRepository(pool)
	c.CallbackLogRepo = paymentrepo.NewCallbackLogRepository(pool)
	c.ProviderConfigRepo = pcrepo.NewPostgresRepository(pool)
	c.OfferRepo = offerrepo.NewPostgresRepository(pool)
	c.IntentStore = checkoutrepo.NewRedisIntentStore(c.Cache)
}

// ========================================
// DOMAIN PLUMBING
// ========================================

// initDomainPlumbing builds the pieces services share: the gateway
// registry, the provider-config resolver and the shipping calculator.
func (c *Container) initDomainPlumbing() error {
	cfg := c.Config

	var providers []provider.PaymentProvider

	if cfg.Cashfree.Configured() {
		cf, err := cashfree.NewClient(cashfree.NewConfig(
			cfg.Cashfree.ClientID,
			cfg.Cashfree.ClientSecret,
			cfg.Cashfree.APIURL,
			cfg.Cashfree.ReturnURL,
		))
		if err != nil {
			return fmt.Errorf("failed to init cashfree client: %w", err)
		}
		providers = append(providers, cf)
	}

	if cfg.PhonePe.Configured() {
		pp, err := phonepe.NewClient(phonepe.NewConfig(
			cfg.PhonePe.MerchantID,
			cfg.PhonePe.SaltKey,
			cfg.PhonePe.SaltIndex,
			cfg.PhonePe.APIURL,
			cfg.PhonePe.ReturnURL,
		))
		if err != nil {
			return fmt.Errorf("failed to init phonepe client: %w", err)
		}
		providers = append(providers, pp)
	}

	// Outside production the in-memory gateway is always registered so
	// the full order flow runs without provider credentials
	if cfg.App.Environment != "production" {
		providers = append(providers, mock.NewProvider("mock"))
	}

	c.Providers = provider.NewRegistry(providers...)

	c.ProviderResolver = pcservice.NewResolver(c.ProviderConfigRepo, c.Cache)

	freeAbove, err := decimal.NewFromString(cfg.Shipping.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_FREE_ABOVE %q: %w", cfg.Shipping.FreeShippingThreshold, err)
	}
	baseRate, err := decimal.NewFromString(cfg.Shipping.BaseRate)
	if err != nil {
		return fmt.Errorf("invalid SHIPPING_BASE_RATE %q: %w", cfg.Shipping.BaseRate, err)
	}

	c.ShippingCalc = shipping.NewCalculator(&shipping.Config{
		FreeShippingThreshold: freeAbove,
		BaseRate:              baseRate,
		// Remote-zone surcharges by pincode prefix: North-East,
		// Andaman and Kashmir valley
		ZoneSurcharges: map[string]decimal.Decimal{
			"78":  decimal.NewFromInt(30),
			"79":  decimal.NewFromInt(30),
			"744": decimal.NewFromInt(50),
			"19":  decimal.NewFromInt(20),
		},
	})

	return nil
}

// ========================================
// SERVICES
// ========================================

func (c *Container) initServices() {
	cfg := c.Config

	c.UserService = userservice.NewUserService(c.UserRepo, c.JWTManager)
	c.AddressService = addressservice.NewAddressService(c.AddressRepo)
	c.OfferService = offerservice.NewOfferService(c.OfferRepo)

	c.CheckoutService = checkoutservice.NewCheckoutService(
		c.IntentStore,
		c.OfferService,
		c.AddressRepo,
		c.ShippingCalc,
	)

	c.OrderService = orderservice.NewOrderService(
		c.OrderRepo,
		c.PaymentRepo,
		c.IntentStore,
		c.OfferService,
		c.AddressRepo,
		c.ShippingCalc,
		c.ProviderResolver,
		c.Providers,
		c.AsynqClient,
		cfg.Reconciliation.ProviderEnv,
	)

	c.PaymentService = paymentservice.NewPaymentService(
		c.PaymentRepo,
		c.RefundRepo,
		c.CallbackLogRepo,
		c.OrderRepo,
		c.Providers,
		c.Cache,
		c.AsynqClient,
	)

	c.ReportService = paymentservice.NewReportService(c.PaymentRepo, c.RefundRepo)
}

// ========================================
// HANDLERS
// ========================================

func (c *Container) initHandlers() {
	c.UserHandler = userhandler.NewHandler(c.UserService)
	c.AddressHandler = addresshandler.NewHandler(c.AddressService)
	c.CheckoutHandler = checkouthandler.NewHandler(c.CheckoutService)
	c.OrderHandler = orderhandler.NewOrderHandler(c.OrderService)
	c.PaymentHandler = paymenthandler.NewPaymentHandler(c.PaymentService, c.ReportService)
}

// Cleanup releases held connections. Called from graceful shutdown.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("[Container] Failed to close asynq client: %v", err)
		}
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infracache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("[Container] Failed to close Redis: %v", err)
			}
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[Container] Failed to close database: %v", err)
		}
	}
}

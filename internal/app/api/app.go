package api

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderhandler "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/http/handler"
	ordersmemory "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/repairshop-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/repairshop-api/internal/domains/orders/application"
	orderports "github.com/Apurer/repairshop-api/internal/domains/orders/ports"
	notificationhandler "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/http/handler"
	sidememory "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/memory"
	sideobs "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/observability"
	sidepostgres "github.com/Apurer/repairshop-api/internal/domains/sideeffects/adapters/persistence/postgres"
	sideapp "github.com/Apurer/repairshop-api/internal/domains/sideeffects/application"
	sideports "github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
	platformobservability "github.com/Apurer/repairshop-api/internal/platform/observability"
	"github.com/Apurer/repairshop-api/internal/platform/outbox"
)

const ServiceName = "repairshop-api"

// Stores bundles the persistence adapters of both bounded contexts.
type Stores struct {
	Orders        orderports.OrderRepository
	Ledger        orderports.LedgerRepository
	Inventory     orderports.Inventory
	Customers     orderports.CustomerResolver
	Idempotency   orderports.IdempotencyStore
	Accounts      sideports.AccountDirectory
	Outbox        outbox.Store
	Notifications sideports.NotificationStore
	Subscriptions sideports.SubscriptionStore
}

// MemoryStores keeps everything in process; used without POSTGRES_DSN and in tests.
func MemoryStores() Stores {
	repo := ordersmemory.NewRepository()
	customers := ordersmemory.NewCustomerDirectory()
	return Stores{
		Orders:        repo,
		Ledger:        repo,
		Inventory:     repo,
		Customers:     customers,
		Idempotency:   ordersmemory.NewIdempotencyStore(),
		Accounts:      customers,
		Outbox:        repo.Outbox(),
		Notifications: sidememory.NewNotificationStore(),
		Subscriptions: sidememory.NewSubscriptionStore(),
	}
}

func PostgresStores(db *gorm.DB) Stores {
	repo := orderspostgres.NewRepository(db)
	customers := orderspostgres.NewCustomerDirectory(db)
	side := sidepostgres.NewStore(db)
	return Stores{
		Orders:        repo,
		Ledger:        repo,
		Inventory:     repo,
		Customers:     customers,
		Idempotency:   orderspostgres.NewIdempotencyStore(db),
		Accounts:      customers,
		Outbox:        orderspostgres.NewOutboxStore(db),
		Notifications: side,
		Subscriptions: side,
	}
}

// SideEffects holds the optional channel adapters of the dispatcher.
type SideEffects struct {
	Delivery  sideports.WebhookDelivery
	Publisher sideports.EventPublisher
	Deduper   sideports.Deduper
}

// App is the wired API process minus its network listeners.
type App struct {
	Router       *gin.Engine
	Relay        *outbox.Relay
	OrderService orderports.Service
}

func NewApp(cfg Config, instruments *platformobservability.Instruments, stores Stores, effects SideEffects) *App {
	if instruments == nil {
		instruments = platformobservability.Noop(nil)
	}
	logger := instruments.Logger

	core := ordersapp.NewService(stores.Orders, stores.Ledger, stores.Inventory,
		ordersapp.WithCustomerResolver(stores.Customers),
		ordersapp.WithIdempotencyStore(stores.Idempotency),
	)
	orderService := ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var delivery sideports.WebhookDelivery
	if effects.Delivery != nil {
		delivery = sideobs.NewDelivery(
			effects.Delivery,
			sideobs.WithLogger(logger),
			sideobs.WithTracer(instruments.Tracer("internal.sideeffects.delivery")),
			sideobs.WithMeter(instruments.Meter("internal.sideeffects.delivery")),
		)
	}
	dispatcher := sideobs.NewDispatcher(
		sideapp.NewDispatcher(logger, stores.Notifications, stores.Subscriptions, delivery,
			sideapp.WithAccountDirectory(stores.Accounts),
			sideapp.WithPublisher(effects.Publisher),
			sideapp.WithDeduper(effects.Deduper),
		),
		sideobs.WithLogger(logger),
		sideobs.WithTracer(instruments.Tracer("internal.sideeffects.dispatcher")),
	)
	relay := outbox.NewRelay(logger, stores.Outbox, dispatcher, relayID(),
		outbox.WithInterval(cfg.OutboxInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
	)

	responder := NewResponder()
	router := NewRouter(
		ServiceName,
		orderhandler.NewOrderAPI(orderService, responder),
		notificationhandler.NewNotificationAPI(sideapp.NewNotificationService(stores.Notifications), responder),
	)
	return &App{Router: router, Relay: relay, OrderService: orderService}
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "relay"
	}
	return "relay-" + host
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletd/walletd/internal/cache"
	"github.com/walletd/walletd/internal/config"
	"github.com/walletd/walletd/internal/ledger"
	"github.com/walletd/walletd/internal/middleware"
	"github.com/walletd/walletd/internal/queue"
	"github.com/walletd/walletd/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. When DB or Redis
// are nil (tests) the corresponding layers fall back: in-memory store, no
// cache, no queue.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemoryStore()
	}
	engine := ledger.NewEngine(store)

	var balanceCache *cache.BalanceCache
	var opQueue *queue.Queue
	if d.Redis != nil {
		balanceCache = cache.New(d.Redis, d.Cfg.CacheTTL)
		opQueue = queue.New(d.Redis, d.Cfg.QueueKey)
	}

	walletSvc := wallet.NewService(store, engine, balanceCache, opQueue, d.Logger)
	walletHandler := wallet.NewHandler(walletSvc)

	api := app.Group("/api/v1")
	if d.Redis != nil {
		api.Use(middleware.Idempotency(d.Redis, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterWalletRoutes(api, walletHandler)

	return nil
}

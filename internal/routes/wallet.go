package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints: creation, balance lookup,
// synchronous operations and queued (fire-and-forget) operations.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletUUID", h.Balance)
	r.Post("/wallets/:walletUUID/operation", h.Operate)
	r.Post("/wallets/:walletUUID/operations/async", h.Enqueue)
}

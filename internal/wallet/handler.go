package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type operationRequest struct {
	OperationType string          `json:"operationType"`
	Amount        decimal.Decimal `json:"amount"`
}

type walletResponse struct {
	WalletUUID string `json:"wallet_uuid"`
	Balance    string `json:"balance"`
}

// Create provisions a wallet with an initial balance.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.InitialBalance.IsNegative() {
		return fiber.NewError(http.StatusBadRequest, "initial_balance must not be negative")
	}

	w, err := h.service.Create(c.UserContext(), req.InitialBalance)
	if err != nil {
		return mapLedgerError(err)
	}
	return c.Status(http.StatusCreated).JSON(walletResponse{
		WalletUUID: w.UUID.String(),
		Balance:    w.Balance.StringFixed(2),
	})
}

// Balance returns the wallet balance, possibly served from cache.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id, err := parseWalletUUID(c)
	if err != nil {
		return err
	}

	balance, cached, err := h.service.Balance(c.UserContext(), id)
	if err != nil {
		return mapLedgerError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_uuid": id.String(),
		"balance":     balance.StringFixed(2),
		"cached":      cached,
	})
}

// Operate applies a deposit or withdrawal synchronously.
func (h *Handler) Operate(c *fiber.Ctx) error {
	op, err := parseOperation(c)
	if err != nil {
		return err
	}

	newBalance, err := h.service.Apply(c.UserContext(), op)
	if err != nil {
		return mapLedgerError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_uuid": op.WalletUUID.String(),
		"new_balance": newBalance.StringFixed(2),
	})
}

// Enqueue accepts an operation for deferred processing. The response only
// acknowledges durability; there is no result channel back to the caller.
func (h *Handler) Enqueue(c *fiber.Ctx) error {
	op, err := parseOperation(c)
	if err != nil {
		return err
	}

	if err := h.service.Submit(c.UserContext(), op); err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"wallet_uuid": op.WalletUUID.String(),
		"status":      "accepted",
	})
}

// parseOperation validates the request body before the engine sees it:
// operationType must be in the enumeration and amount strictly positive.
func parseOperation(c *fiber.Ctx) (ledger.Operation, error) {
	id, err := parseWalletUUID(c)
	if err != nil {
		return ledger.Operation{}, err
	}

	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.Operation{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}

	kind, err := ledger.ParseOperationType(req.OperationType)
	if err != nil {
		return ledger.Operation{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if !req.Amount.IsPositive() {
		return ledger.Operation{}, fiber.NewError(http.StatusBadRequest, "amount must be positive")
	}

	return ledger.Operation{WalletUUID: id, Type: kind, Amount: req.Amount}, nil
}

func parseWalletUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("walletUUID"))
	if err != nil {
		return uuid.Nil, fiber.NewError(http.StatusBadRequest, "malformed wallet uuid")
	}
	return id, nil
}

// mapLedgerError translates engine failures into client-facing status codes.
// Not-found and insufficient-funds are distinct on purpose.
func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrInvalidOperationType), errors.Is(err, ledger.ErrNonPositiveAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrWalletCreationFailed):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return err
	}
}

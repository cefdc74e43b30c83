package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/walletd/walletd/internal/ledger"
)

func setupApp(t *testing.T) (*fiber.App, *Service, ledger.Store) {
	t.Helper()
	svc, store, _ := setupService(t)
	h := NewHandler(svc)

	app := fiber.New()
	app.Post("/api/v1/wallets", h.Create)
	app.Get("/api/v1/wallets/:walletUUID", h.Balance)
	app.Post("/api/v1/wallets/:walletUUID/operation", h.Operate)
	app.Post("/api/v1/wallets/:walletUUID/operations/async", h.Enqueue)
	return app, svc, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) != nil {
		decoded = nil
	}
	return resp, decoded
}

func TestHandlerCreateWallet(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", `{"initial_balance": "100.00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "100.00", body["balance"])

	_, err := uuid.Parse(body["wallet_uuid"].(string))
	require.NoError(t, err, "wallet_uuid must be a well-formed UUID")
}

func TestHandlerCreateWalletRejectsNegative(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", `{"initial_balance": "-5.00"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBalance(t *testing.T) {
	app, _, store := setupApp(t)
	id := ledger.SeedWallet(store, decimal.RequireFromString("42.00"))

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/wallets/"+id.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "42.00", body["balance"])
	require.Equal(t, id.String(), body["wallet_uuid"])
}

func TestHandlerBalanceUnknownWallet(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/wallets/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerBalanceMalformedUUID(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/wallets/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerDeposit(t *testing.T) {
	app, _, store := setupApp(t)
	id := ledger.SeedWallet(store, decimal.RequireFromString("50.00"))

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets/"+id.String()+"/operation",
		`{"operationType": "DEPOSIT", "amount": "25.00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "75.00", body["new_balance"])
}

func TestHandlerWithdrawInsufficientFunds(t *testing.T) {
	app, _, store := setupApp(t)
	id := ledger.SeedWallet(store, decimal.RequireFromString("30.00"))

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets/"+id.String()+"/operation",
		`{"operationType": "WITHDRAW", "amount": "50.00"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Balance must be untouched by the rejected withdrawal.
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/wallets/"+id.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "30.00", body["balance"])
}

func TestHandlerOperationNotFoundBeatsInsufficientFunds(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets/"+uuid.NewString()+"/operation",
		`{"operationType": "WITHDRAW", "amount": "10.00"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerOperationValidation(t *testing.T) {
	app, _, store := setupApp(t)
	id := ledger.SeedWallet(store, decimal.RequireFromString("10.00"))

	cases := []string{
		`{"operationType": "TRANSFER", "amount": "10.00"}`,
		`{"operationType": "DEPOSIT", "amount": "0"}`,
		`{"operationType": "DEPOSIT", "amount": "-1.00"}`,
		`{"operationType": "", "amount": "1.00"}`,
	}
	for _, body := range cases {
		resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets/"+id.String()+"/operation", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
	}
}

func TestHandlerEnqueueAccepted(t *testing.T) {
	app, svc, store := setupApp(t)
	id := ledger.SeedWallet(store, decimal.RequireFromString("10.00"))

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets/"+id.String()+"/operations/async",
		`{"operationType": "DEPOSIT", "amount": "5.00"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "accepted", body["status"])

	// Accepted means durable, not applied: the enqueued message is in the
	// queue and the balance has not moved yet.
	ctx := context.Background()
	msg, err := svc.queue.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, id.String(), msg.WalletUUID)
	require.Equal(t, "DEPOSIT", msg.OperationType)
	require.Equal(t, "5.00", msg.Amount)

	w, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.RequireFromString("10.00")))
}

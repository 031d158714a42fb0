package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// AccountService defines the ledger methods the account handler requires.
type AccountService interface {
	Deposit(ctx context.Context, address string, amount uint64) error
	Balance(ctx context.Context, address string) (uint64, error)
}

// AccountHandler serves account/ledger HTTP endpoints.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler with the given service and logger.
func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logHandler(logger, "account"),
	}
}

// normalizeAddress validates a path address and returns its canonical form.
func normalizeAddress(w http.ResponseWriter, raw string) (string, bool) {
	if raw == "" || !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return "", false
	}
	return common.HexToAddress(raw).Hex(), true
}

// depositRequest is the JSON body for crediting an account.
type depositRequest struct {
	Amount uint64 `json:"amount"`
}

// Deposit credits an account from the external settlement rail.
// POST /api/accounts/{address}/deposit
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	address, ok := normalizeAddress(w, pathParam(r, "address"))
	if !ok {
		return
	}

	var req depositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.accounts.Deposit(r.Context(), address, req.Amount); err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	balance, err := h.accounts.Balance(r.Context(), address)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": address,
		"balance": balance,
	})
}

// GetAccount returns the spendable balance of an account.
// GET /api/accounts/{address}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	address, ok := normalizeAddress(w, pathParam(r, "address"))
	if !ok {
		return
	}

	balance, err := h.accounts.Balance(r.Context(), address)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": address,
		"balance": balance,
	})
}

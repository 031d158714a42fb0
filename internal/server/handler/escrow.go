package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EscrowService defines the methods that the escrow handler requires from
// the marketplace aggregate.
type EscrowService interface {
	ConfirmDelivery(ctx context.Context, caller, escrowID string) (domain.Escrow, error)
	DisputeEscrow(ctx context.Context, caller, escrowID string) (domain.Escrow, error)
	RefundEscrow(ctx context.Context, caller, escrowID string) (domain.Escrow, error)
	GetEscrow(ctx context.Context, id string) (domain.Escrow, error)
	ListEscrowsByParty(ctx context.Context, address string, opts domain.ListOpts) ([]domain.Escrow, error)
}

// EscrowHandler serves escrow-related HTTP endpoints.
type EscrowHandler struct {
	escrows EscrowService
	logger  *slog.Logger
}

// NewEscrowHandler creates an EscrowHandler with the given service and logger.
func NewEscrowHandler(escrows EscrowService, logger *slog.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrows: escrows,
		logger:  logHandler(logger, "escrow"),
	}
}

// ConfirmDelivery settles the trade: funds to the seller, item sold.
// Buyer only.
// POST /api/escrows/{id}/confirm
func (h *EscrowHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	escrow, err := h.escrows.ConfirmDelivery(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, escrow)
}

// DisputeEscrow freezes an active escrow. Buyer only.
// POST /api/escrows/{id}/dispute
func (h *EscrowHandler) DisputeEscrow(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	escrow, err := h.escrows.DisputeEscrow(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, escrow)
}

// RefundEscrow resolves a disputed escrow by returning the funds to the
// buyer. Seller only.
// POST /api/escrows/{id}/refund
func (h *EscrowHandler) RefundEscrow(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	escrow, err := h.escrows.RefundEscrow(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, escrow)
}

// listEscrowsResponse wraps the list endpoint output with pagination metadata.
type listEscrowsResponse struct {
	Escrows []domain.Escrow `json:"escrows"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListEscrows returns the escrows where the caller is buyer or seller.
// GET /api/escrows
func (h *EscrowHandler) ListEscrows(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts := parseListOpts(r)

	escrows, err := h.escrows.ListEscrowsByParty(r.Context(), caller, opts)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if escrows == nil {
		escrows = []domain.Escrow{}
	}
	writeJSON(w, http.StatusOK, listEscrowsResponse{
		Escrows: escrows,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetEscrow returns a single escrow by its ID.
// GET /api/escrows/{id}
func (h *EscrowHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing escrow id")
		return
	}

	escrow, err := h.escrows.GetEscrow(r.Context(), id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, escrow)
}

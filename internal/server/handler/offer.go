package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/marketplace"
)

// OfferService defines the methods that the offer handler requires from the
// marketplace aggregate.
type OfferService interface {
	CreateOffer(ctx context.Context, buyer string, in marketplace.CreateOfferInput) (domain.Offer, error)
	CounterOffer(ctx context.Context, caller string, in marketplace.CounterOfferInput) (domain.Offer, error)
	AcceptOffer(ctx context.Context, caller string, in marketplace.AcceptOfferInput) (domain.Escrow, error)
	RejectOffer(ctx context.Context, caller, offerID string) (domain.Offer, error)
	CancelOffer(ctx context.Context, caller, offerID string) (domain.Offer, error)
	GetOffer(ctx context.Context, id string) (domain.Offer, error)
	ListOffersByItem(ctx context.Context, itemID string, opts domain.ListOpts) ([]domain.Offer, error)
	ListOffersByBuyer(ctx context.Context, buyer string, opts domain.ListOpts) ([]domain.Offer, error)
}

// OfferHandler serves offer-related HTTP endpoints.
type OfferHandler struct {
	offers OfferService
	logger *slog.Logger
}

// NewOfferHandler creates an OfferHandler with the given service and logger.
func NewOfferHandler(offers OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{
		offers: offers,
		logger: logHandler(logger, "offer"),
	}
}

// createOfferRequest is the JSON body for placing an offer. Payment must
// equal amount exactly; it is locked in custody until the offer resolves.
type createOfferRequest struct {
	ItemID         string `json:"item_id"`
	Amount         uint64 `json:"amount"`
	Payment        uint64 `json:"payment"`
	Message        string `json:"message"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

// CreateOffer places a funded offer against an active item.
// POST /api/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req createOfferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	offer, err := h.offers.CreateOffer(r.Context(), buyer, marketplace.CreateOfferInput{
		ItemID:         req.ItemID,
		Amount:         req.Amount,
		Payment:        req.Payment,
		Message:        req.Message,
		ExpiresInHours: req.ExpiresInHours,
	})
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// counterOfferRequest is the JSON body for countering an offer. Payment is
// only meaningful for a buyer raising their own offer.
type counterOfferRequest struct {
	Amount  uint64 `json:"amount"`
	Message string `json:"message"`
	Payment uint64 `json:"payment"`
}

// CounterOffer revises an open offer's terms. Either party may counter.
// POST /api/offers/{id}/counter
func (h *OfferHandler) CounterOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	var req counterOfferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	offer, err := h.offers.CounterOffer(r.Context(), caller, marketplace.CounterOfferInput{
		OfferID:   id,
		NewAmount: req.Amount,
		Message:   req.Message,
		Payment:   req.Payment,
	})
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// acceptOfferRequest is the JSON body for accepting an offer. Payment covers
// the shortfall when accepting a seller counter above the custodied amount.
type acceptOfferRequest struct {
	Payment uint64 `json:"payment"`
}

// AcceptOffer closes the negotiation and opens an escrow.
// POST /api/offers/{id}/accept
func (h *OfferHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	// The body is optional; a missing one means zero payment.
	var req acceptOfferRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	escrow, err := h.offers.AcceptOffer(r.Context(), caller, marketplace.AcceptOfferInput{
		OfferID: id,
		Payment: req.Payment,
	})
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, escrow)
}

// RejectOffer declines an open offer and refunds the buyer. Seller only.
// POST /api/offers/{id}/reject
func (h *OfferHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	offer, err := h.offers.RejectOffer(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// CancelOffer withdraws an offer and refunds the buyer. Buyer only.
// POST /api/offers/{id}/cancel
func (h *OfferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	offer, err := h.offers.CancelOffer(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// listOffersResponse wraps the list endpoint output with pagination metadata.
type listOffersResponse struct {
	Offers []domain.Offer `json:"offers"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListOffersByItem returns the offers against an item, newest first.
// GET /api/items/{id}/offers
func (h *OfferHandler) ListOffersByItem(w http.ResponseWriter, r *http.Request) {
	itemID := pathParam(r, "id")
	opts := parseListOpts(r)

	offers, err := h.offers.ListOffersByItem(r.Context(), itemID, opts)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if offers == nil {
		offers = []domain.Offer{}
	}
	writeJSON(w, http.StatusOK, listOffersResponse{
		Offers: offers,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// ListOffers returns the calling buyer's offers, newest first.
// GET /api/offers
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requireActor(w, r)
	if !ok {
		return
	}
	opts := parseListOpts(r)

	offers, err := h.offers.ListOffersByBuyer(r.Context(), buyer, opts)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if offers == nil {
		offers = []domain.Offer{}
	}
	writeJSON(w, http.StatusOK, listOffersResponse{
		Offers: offers,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetOffer returns a single offer by its ID.
// GET /api/offers/{id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing offer id")
		return
	}

	offer, err := h.offers.GetOffer(r.Context(), id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

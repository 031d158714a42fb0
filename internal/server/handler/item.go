package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rijulg06/thriftchain/internal/capability"
	"github.com/rijulg06/thriftchain/internal/domain"
	"github.com/rijulg06/thriftchain/internal/marketplace"
)

// ItemService defines the methods that the item handler requires from the
// marketplace aggregate.
type ItemService interface {
	CreateItem(ctx context.Context, seller string, token *capability.Token, in marketplace.CreateItemInput) (domain.Item, error)
	UpdateItemPrice(ctx context.Context, caller, itemID string, newPrice uint64) (domain.Item, error)
	CancelItem(ctx context.Context, caller, itemID string) (domain.Item, error)
	GetItem(ctx context.Context, id string) (domain.Item, error)
	ListActiveItems(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error)
	ListItemsBySeller(ctx context.Context, seller string, opts domain.ListOpts) ([]domain.Item, error)
}

// ItemHandler serves item-related HTTP endpoints.
type ItemHandler struct {
	items  ItemService
	issuer *capability.Issuer
	logger *slog.Logger
}

// NewItemHandler creates an ItemHandler with the given service, capability
// issuer, and logger.
func NewItemHandler(items ItemService, issuer *capability.Issuer, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		items:  items,
		issuer: issuer,
		logger: logHandler(logger, "item"),
	}
}

// createItemRequest is the JSON body for listing a new item.
type createItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       uint64   `json:"price"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ImageRefs   []string `json:"image_refs"`
	Condition   string   `json:"condition"`
	Brand       string   `json:"brand"`
	Size        string   `json:"size"`
	Color       string   `json:"color"`
	Material    string   `json:"material"`
}

// CreateItem lists a new item. The seller presents the listing secret in the
// capability header; it is redeemed for the process-held capability token
// before the marketplace is called.
// POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireActor(w, r)
	if !ok {
		return
	}

	token := h.issuer.Redeem(r.Header.Get(capabilityHeader))
	// A nil token fails capability verification inside the marketplace,
	// producing the same fault as any forged credential.

	var req createItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.items.CreateItem(r.Context(), seller, token, marketplace.CreateItemInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Tags:        req.Tags,
		ImageRefs:   req.ImageRefs,
		Condition:   req.Condition,
		Brand:       req.Brand,
		Size:        req.Size,
		Color:       req.Color,
		Material:    req.Material,
	})
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// updatePriceRequest is the JSON body for a price change.
type updatePriceRequest struct {
	Price uint64 `json:"price"`
}

// UpdatePrice changes the listing price. Seller only.
// PATCH /api/items/{id}/price
func (h *ItemHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	var req updatePriceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.items.UpdateItemPrice(r.Context(), caller, id, req.Price)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// CancelItem withdraws an active listing. Seller only.
// POST /api/items/{id}/cancel
func (h *ItemHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := pathParam(r, "id")

	item, err := h.items.CancelItem(r.Context(), caller, id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// listItemsResponse wraps the list endpoint output with pagination metadata.
type listItemsResponse struct {
	Items  []domain.Item `json:"items"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListItems returns active items, or a seller's listings when the seller
// query parameter is present.
// GET /api/items?limit=50&offset=0[&seller=0x...]
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var items []domain.Item
	var err error
	if seller := r.URL.Query().Get("seller"); seller != "" {
		items, err = h.items.ListItemsBySeller(r.Context(), seller, opts)
	} else {
		items, err = h.items.ListActiveItems(r.Context(), opts)
	}
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, listItemsResponse{
		Items:  items,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetItem returns a single item by its ID.
// GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	item, err := h.items.GetItem(r.Context(), id)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

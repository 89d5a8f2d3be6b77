package auctions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/api"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/mapping"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/go-chi/chi/v5"
)

// AuctionsHandler holds the dependencies for auction-related handlers.
type AuctionsHandler struct {
	Store storage.ReadStore
}

// NewAuctionsHandler creates a new AuctionsHandler.
func NewAuctionsHandler(store storage.ReadStore) *AuctionsHandler {
	return &AuctionsHandler{Store: store}
}

// ListAuctions handles the logic for retrieving all auctions.
func (h *AuctionsHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	domainAuctions, err := h.Store.ListAuctions(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve auctions: %v", err), http.StatusInternalServerError)
		return
	}

	apiAuctions := make([]*api.Auction, len(domainAuctions))
	for i, auction := range domainAuctions {
		apiAuctions[i] = mapping.ToApiAuction(&auction)
	}

	writeJSON(w, http.StatusOK, apiAuctions)
}

// GetAuction handles the logic for retrieving a single auction.
func (h *AuctionsHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")

	domainAuction, err := h.Store.GetAuction(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			http.Error(w, "Auction not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve auction: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiAuction(domainAuction))
}

// ListAuctionBids handles the logic for retrieving an auction's bid history.
func (h *AuctionsHandler) ListAuctionBids(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")

	if _, err := h.Store.GetAuction(r.Context(), auctionID); err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			http.Error(w, "Auction not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve auction: %v", err), http.StatusInternalServerError)
		}
		return
	}

	domainBids, err := h.Store.ListBidsByAuction(r.Context(), auctionID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve bids: %v", err), http.StatusInternalServerError)
		return
	}

	apiBids := make([]*api.Bid, len(domainBids))
	for i, bid := range domainBids {
		apiBids[i] = mapping.ToApiBid(&bid)
	}

	writeJSON(w, http.StatusOK, apiBids)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

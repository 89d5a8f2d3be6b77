package auctions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/api"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/handlers/auctions"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(store *memory.Store) *chi.Mux {
	h := auctions.NewAuctionsHandler(store)
	r := chi.NewRouter()
	r.Get("/auctions", h.ListAuctions)
	r.Get("/auctions/{auctionId}", h.GetAuction)
	r.Get("/auctions/{auctionId}/bids", h.ListAuctionBids)
	return r
}

func seedAuction(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	_, err := store.CreateAuction(context.Background(), &models.Auction{
		Id:           id,
		Title:        "Test Lot",
		SellerId:     "seller1",
		Status:       models.AuctionLive,
		EndTime:      time.Now().Add(10 * time.Minute),
		MinIncrement: 500,
		Version:      1,
	})
	require.NoError(t, err)
}

func TestListAuctions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := memory.New()
		seedAuction(t, store, "auction1")
		seedAuction(t, store, "auction2")

		req := httptest.NewRequest(http.MethodGet, "/auctions", nil)
		rr := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []api.Auction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("Empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auctions", nil)
		rr := httptest.NewRecorder()
		newRouter(memory.New()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestGetAuction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		store := memory.New()
		seedAuction(t, store, "auction1")

		req := httptest.NewRequest(http.MethodGet, "/auctions/auction1", nil)
		rr := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got api.Auction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "auction1", got.Id)
		assert.Equal(t, "Test Lot", got.Title)
		assert.Equal(t, string(models.AuctionLive), got.Status)
	})

	t.Run("Not Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auctions/ghost", nil)
		rr := httptest.NewRecorder()
		newRouter(memory.New()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListAuctionBids(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auctions/ghost/bids", nil)
		rr := httptest.NewRecorder()
		newRouter(memory.New()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Empty History", func(t *testing.T) {
		store := memory.New()
		seedAuction(t, store, "auction1")

		req := httptest.NewRequest(http.MethodGet, "/auctions/auction1/bids", nil)
		rr := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []api.Bid
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Empty(t, got)
	})
}

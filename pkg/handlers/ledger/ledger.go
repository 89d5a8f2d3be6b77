package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/api"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/mapping"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
)

const defaultLimit = 20

// LedgerHandler holds the dependencies for audit-trail handlers.
type LedgerHandler struct {
	Store storage.AuditLogReader
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store storage.AuditLogReader) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// ListLedgerEntries serves the most recent wallet audit entries.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	domainEntries, err := h.Store.ListWalletAuditEntries(r.Context(), parseLimit(r))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve ledger entries: %v", err), http.StatusInternalServerError)
		return
	}

	apiEntries := make([]*api.LedgerEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiLedgerEntry(&entry)
	}

	writeJSON(w, apiEntries)
}

// ListAdminActions serves the most recent admin action entries.
func (h *LedgerHandler) ListAdminActions(w http.ResponseWriter, r *http.Request) {
	domainEntries, err := h.Store.ListAdminActions(r.Context(), parseLimit(r))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve admin actions: %v", err), http.StatusInternalServerError)
		return
	}

	apiEntries := make([]*api.AdminActionEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiAdminAction(&entry)
	}

	writeJSON(w, apiEntries)
}

func parseLimit(r *http.Request) int32 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return int32(limit)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

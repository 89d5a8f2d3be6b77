package storage

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// AuditLogReader defines the interface for reading the append-only
// audit trails. Entries are written exclusively inside EngineStore
// transactions; there is no writer interface.
type AuditLogReader interface {
	// ListWalletAuditEntries retrieves the most recent wallet audit
	// entries.
	ListWalletAuditEntries(ctx context.Context, limit int32) ([]models.WalletAuditLogEntry, error)

	// ListAdminActions retrieves the most recent admin action entries.
	ListAdminActions(ctx context.Context, limit int32) ([]models.AdminActionLogEntry, error)
}

package storage

// Storage defines the root interface for the entire data layer.
// It composes all available storage operations. Components should depend
// on the more granular interfaces (ReadStore, EngineStore, etc.) instead
// of this one.
type Storage interface {
	ReadStore
	EngineStore
}

// ReadStore defines the complete set of non-privileged read operations
// needed by the API surface and the gateway. It composes other
// interfaces to provide a clear boundary for read-only data access.
type ReadStore interface {
	AuctionReader
	BidReader
	WalletStore
	AuditLogReader
}

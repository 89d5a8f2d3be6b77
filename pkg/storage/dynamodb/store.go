package dynamodb

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPI is the part of the DynamoDB client the store uses. Tests
// substitute a mock.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB. Every
// money-touching operation is a single TransactWriteItems call whose
// condition expressions stand in for the row locks a relational store
// would hold: a lost race surfaces as a conditional-check failure, not
// a corrupted balance.
type Store struct {
	Client            DynamoDBAPI
	AuctionsTableName string
	BidsTableName     string
	WalletsTableName  string
	AuditTableName    string
	OpsLogTableName   string
}

// New creates a new Store.
func New(client DynamoDBAPI, auctionsTable, bidsTable, walletsTable, auditTable, opsLogTable string) *Store {
	return &Store{
		Client:            client,
		AuctionsTableName: auctionsTable,
		BidsTableName:     bidsTable,
		WalletsTableName:  walletsTable,
		AuditTableName:    auditTable,
		OpsLogTableName:   opsLogTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Secondary index names.
const (
	auctionStatusIndex = "status-end_time-index"
	auctionBidsIndex   = "auction_id-sequence-index"
	idempotencyIndex   = "idem_key-index"
	logIndex           = "gsi1pk-timestamp-index"
)

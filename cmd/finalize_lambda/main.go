package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/deposits"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/engine"
	wsevents "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/scheduler"
	dydbstore "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb"
)

var eng *engine.Engine

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	auctionsTable := os.Getenv("DYNAMODB_AUCTIONS_TABLE_NAME")
	bidsTable := os.Getenv("DYNAMODB_BIDS_TABLE_NAME")
	walletsTable := os.Getenv("DYNAMODB_WALLETS_TABLE_NAME")
	auditTable := os.Getenv("DYNAMODB_AUDIT_TABLE_NAME")
	opsLogTable := os.Getenv("DYNAMODB_OPSLOG_TABLE_NAME")
	if auctionsTable == "" || bidsTable == "" || walletsTable == "" || auditTable == "" || opsLogTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dydbstore.New(dynamodb.NewFromConfig(cfg), auctionsTable, bidsTable, walletsTable, auditTable, opsLogTable)

	// No live websocket rooms in the lambda; broadcasts are dropped.
	eng = engine.New(store, &wsevents.NoOpPublisher{}, deposits.NewWalletFlagProvider(store), nil)
}

// HandleRequest consumes deadline messages and finalizes due auctions.
// Early deliveries (SQS caps the delay at 15 minutes) no-op against the
// engine's deadline check; the periodic sweep covers those auctions
// when they actually become due.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		var fm scheduler.FinalizeMessage
		if err := json.Unmarshal([]byte(message.Body), &fm); err != nil {
			log.Printf("ERROR: failed to unmarshal finalize message %s: %v", message.MessageId, err)
			return err
		}

		log.Printf("Finalizing auction %s (deadline %s)", fm.AuctionId, fm.EndTime)

		if err := eng.AutoFinalizeWinner(ctx, fm.AuctionId, "queue"); err != nil {
			log.Printf("ERROR: failed to finalize auction %s: %v", fm.AuctionId, err)
			return err
		}
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}

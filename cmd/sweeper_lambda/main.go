package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/deposits"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/engine"
	wsevents "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	dydbstore "github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb"
)

var store storage.Storage
var eng *engine.Engine

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

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

	store = dydbstore.New(dynamodb.NewFromConfig(cfg), auctionsTable, bidsTable, walletsTable, auditTable, opsLogTable)
	eng = engine.New(store, &wsevents.NoOpPublisher{}, deposits.NewWalletFlagProvider(store), nil)
}

// HandleRequest is triggered by an EventBridge Schedule. It is the
// backstop behind the in-process timers and the deadline queue: any
// live auction whose end_time has passed gets finalized here.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting deadline sweep for overdue auctions...")

	overdue, err := store.ListOverdueLiveAuctions(ctx, time.Now())
	if err != nil {
		log.Printf("ERROR: failed to list overdue auctions: %v", err)
		return err
	}

	if len(overdue) == 0 {
		log.Println("No overdue auctions found.")
		return nil
	}

	log.Printf("Found %d overdue auctions. Finalizing them...", len(overdue))

	for _, auction := range overdue {
		if err := eng.AutoFinalizeWinner(ctx, auction.Id, "sweep"); err != nil {
			log.Printf("ERROR: failed to finalize auction %s: %v", auction.Id, err)
			// Continue to the next auction, don't let one failure stop the whole batch.
			continue
		}
		log.Printf("Successfully finalized auction %s", auction.Id)
	}

	log.Println("Deadline sweep finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}

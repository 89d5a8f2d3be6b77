package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb/mocks"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func releaseInput() *storage.ReleaseEscrowInput {
	now := time.Now().UTC()
	return &storage.ReleaseEscrowInput{
		Auction: &models.Auction{Id: "auction1", Version: 5},
		Bid: &models.Bid{
			Id: "bid1", AuctionId: "auction1", UserId: "user1",
			Escrow: &models.EscrowSnapshot{Locked: 1050, RequiredEscrow: 1050},
		},
		Wallet: &models.Wallet{UserId: "user1", Available: 1000, Escrow: 1050, Version: 2},
		Amount: 1050,
		Audit:  &models.WalletAuditLogEntry{EntryId: "entry1", UserId: "user1", Delta: -1050, Timestamp: now},
	}
}

func TestReleaseBidEscrow(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 3
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.ReleaseBidEscrow(context.Background(), releaseInput())

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("With Status And Admin Log", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		in := releaseInput()
		in.NewBidStatus = models.BidRejected
		in.AdminLog = &models.AdminActionLogEntry{EntryId: "log1", Action: models.AdminReject}

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(input *dynamodb.TransactWriteItemsInput) bool {
			return len(input.TransactItems) == 4 &&
				*input.TransactItems[1].Update.UpdateExpression == "SET escrow.released = :true, updated_at = :now, #status = :status"
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.ReleaseBidEscrow(context.Background(), in)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Released", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(3, 1))

		err := store.ReleaseBidEscrow(context.Background(), releaseInput())

		assert.ErrorIs(t, err, storage.ErrEscrowAlreadyReleased)
		mockClient.AssertExpectations(t)
	})

	t.Run("Wallet Version Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(3, 0))

		err := store.ReleaseBidEscrow(context.Background(), releaseInput())

		assert.ErrorIs(t, err, storage.ErrVersionConflict)
		mockClient.AssertExpectations(t)
	})
}

func adjustInput(delta int64) *storage.AdjustEscrowInput {
	now := time.Now().UTC()
	return &storage.AdjustEscrowInput{
		Bid: &models.Bid{
			Id: "bid1", AuctionId: "auction1", UserId: "user1", Amount: 12000,
			Kind: models.BidAdminOverride, Status: models.BidAccepted,
			Escrow: &models.EscrowSnapshot{Locked: 1200, RequiredEscrow: 1200},
		},
		Wallet:   &models.Wallet{UserId: "user1", Available: 2000, Escrow: 1050, Version: 2},
		Delta:    delta,
		Audit:    &models.WalletAuditLogEntry{EntryId: "entry1", UserId: "user1", Delta: delta, Timestamp: now},
		AdminLog: &models.AdminActionLogEntry{EntryId: "log1", Action: models.AdminOverride},
	}
}

func TestAdjustBidEscrow(t *testing.T) {
	t.Run("Lock More", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 4 &&
				*in.TransactItems[0].Update.ConditionExpression == "available >= :delta AND version = :v"
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.AdjustBidEscrow(context.Background(), adjustInput(150))

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Release Excess", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return *in.TransactItems[0].Update.ConditionExpression == "escrow >= :neg AND version = :v"
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.AdjustBidEscrow(context.Background(), adjustInput(-300))

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(4, 0))

		err := store.AdjustBidEscrow(context.Background(), adjustInput(150))

		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		mockClient.AssertExpectations(t)
	})
}

func TestUpdateBidStatus(t *testing.T) {
	in := &storage.BidStatusInput{
		Bid:      &models.Bid{Id: "bid1", Status: models.BidAccepted, UpdatedAt: time.Now().UTC()},
		AdminLog: &models.AdminActionLogEntry{EntryId: "log1", Action: models.AdminAccept},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(input *dynamodb.TransactWriteItemsInput) bool {
			return len(input.TransactItems) == 2
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.UpdateBidStatus(context.Background(), in)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Bid Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(2, 0))

		err := store.UpdateBidStatus(context.Background(), in)

		assert.ErrorIs(t, err, storage.ErrBidNotFound)
		mockClient.AssertExpectations(t)
	})
}

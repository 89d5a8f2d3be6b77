package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb/mocks"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetAuction(t *testing.T) {
	auction := &models.Auction{Id: "auction1", Title: "Vintage Lamp", Status: models.AuctionLive, Version: 1}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		auctionAV, _ := attributevalue.MarshalMap(auction)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Once().Return(&dynamodb.GetItemOutput{Item: auctionAV}, nil)

		result, err := store.GetAuction(context.Background(), "auction1")

		assert.NoError(t, err)
		assert.Equal(t, auction.Id, result.Id)
		assert.Equal(t, auction.Status, result.Status)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		_, err := store.GetAuction(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrAuctionNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("DynamoDB Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb down"))

		_, err := store.GetAuction(context.Background(), "auction1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get auction")
		mockClient.AssertExpectations(t)
	})
}

func TestListOverdueLiveAuctions(t *testing.T) {
	now := time.Now().UTC()
	overdue := models.Auction{Id: "auction1", Status: models.AuctionLive, EndTime: now.Add(-time.Minute)}

	t.Run("Bounds End Time", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		overdueAV, _ := attributevalue.MarshalMap(overdue)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.IndexName == auctionStatusIndex &&
				*in.KeyConditionExpression == "#status = :live AND end_time < :cutoff"
		})).Once().Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{overdueAV}}, nil)

		auctions, err := store.ListOverdueLiveAuctions(context.Background(), now)

		assert.NoError(t, err)
		assert.Len(t, auctions, 1)
		assert.Equal(t, "auction1", auctions[0].Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Query Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("query failed"))

		_, err := store.ListOverdueLiveAuctions(context.Background(), now)

		assert.Error(t, err)
		mockClient.AssertExpectations(t)
	})
}

func TestMarkAuctionEnded(t *testing.T) {
	auction := &models.Auction{Id: "auction1", Status: models.AuctionLive, Version: 7}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 2
		})).Once().Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := store.MarkAuctionEnded(context.Background(), auction, &models.AdminActionLogEntry{EntryId: "log1", Action: models.AdminFinalize})

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Ended", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelledAt(1, 0))

		err := store.MarkAuctionEnded(context.Background(), auction, nil)

		assert.ErrorIs(t, err, storage.ErrAuctionEnded)
		mockClient.AssertExpectations(t)
	})
}

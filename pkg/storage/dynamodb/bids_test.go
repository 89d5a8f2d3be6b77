package dynamodb

import (
	"context"
	"testing"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/dynamodb/mocks"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetBidByIdempotencyKey(t *testing.T) {
	bid := models.Bid{Id: "bid1", AuctionId: "auction1", UserId: "user1", Amount: 10500, IdempotencyKey: "retry-1"}

	t.Run("Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		bidAV, _ := attributevalue.MarshalMap(bid)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			key, ok := in.ExpressionAttributeValues[":key"].(*types.AttributeValueMemberS)
			return *in.IndexName == idempotencyIndex && ok && key.Value == "auction1#user1#retry-1"
		})).Once().Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{bidAV}}, nil)

		result, err := store.GetBidByIdempotencyKey(context.Background(), "auction1", "user1", "retry-1")

		assert.NoError(t, err)
		assert.Equal(t, "bid1", result.Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := testStore(mockClient)

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

		_, err := store.GetBidByIdempotencyKey(context.Background(), "auction1", "user1", "retry-2")

		assert.ErrorIs(t, err, storage.ErrBidNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListAcceptedBids(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := testStore(mockClient)

	accepted := models.Bid{Id: "bid1", AuctionId: "auction1", Status: models.BidAccepted, Sequence: 2}
	acceptedAV, _ := attributevalue.MarshalMap(accepted)

	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == auctionBidsIndex &&
			in.FilterExpression != nil &&
			!*in.ScanIndexForward
	})).Once().Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{acceptedAV}}, nil)

	bids, err := store.ListAcceptedBids(context.Background(), "auction1")

	assert.NoError(t, err)
	assert.Len(t, bids, 1)
	assert.Equal(t, models.BidAccepted, bids[0].Status)
	mockClient.AssertExpectations(t)
}

func TestMarshalBidIdempotencyAttribute(t *testing.T) {
	t.Run("With Key", func(t *testing.T) {
		item, err := marshalBid(&models.Bid{Id: "bid1", AuctionId: "a1", UserId: "u1", IdempotencyKey: "k1"})

		assert.NoError(t, err)
		attr, ok := item["idem_key"].(*types.AttributeValueMemberS)
		assert.True(t, ok)
		assert.Equal(t, "a1#u1#k1", attr.Value)
	})

	t.Run("Without Key", func(t *testing.T) {
		item, err := marshalBid(&models.Bid{Id: "bid1", AuctionId: "a1", UserId: "u1"})

		assert.NoError(t, err)
		_, ok := item["idem_key"]
		assert.False(t, ok)
	})
}

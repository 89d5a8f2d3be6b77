package dynamodb

import (
	"context"
	"fmt"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// idemKey builds the composite attribute backing the idempotency index.
func idemKey(auctionID, userID, key string) string {
	return auctionID + "#" + userID + "#" + key
}

// marshalBid marshals a bid, attaching the idempotency composite
// attribute when the caller supplied a key.
func marshalBid(bid *models.Bid) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(bid)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bid: %w", err)
	}
	if bid.IdempotencyKey != "" {
		item["idem_key"] = &types.AttributeValueMemberS{
			Value: idemKey(bid.AuctionId, bid.UserId, bid.IdempotencyKey),
		}
	}
	return item, nil
}

// GetBid retrieves a bid from DynamoDB by its ID.
func (s *Store) GetBid(ctx context.Context, bidID string) (*models.Bid, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": bidID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bid ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.BidsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get bid from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrBidNotFound
	}

	var bid models.Bid
	if err := attributevalue.UnmarshalMap(result.Item, &bid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid: %w", err)
	}
	return &bid, nil
}

// GetBidByIdempotencyKey retrieves the bid previously inserted for the
// given (auction, user, key) triple.
func (s *Store) GetBidByIdempotencyKey(ctx context.Context, auctionID, userID, key string) (*models.Bid, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.BidsTableName),
		IndexName:              aws.String(idempotencyIndex),
		KeyConditionExpression: aws.String("idem_key = :key"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":key": &types.AttributeValueMemberS{Value: idemKey(auctionID, userID, key)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query idempotency index: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, storage.ErrBidNotFound
	}

	var bid models.Bid
	if err := attributevalue.UnmarshalMap(result.Items[0], &bid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bid: %w", err)
	}
	return &bid, nil
}

// ListBidsByAuction retrieves all bids for an auction, most recent
// sequence first.
func (s *Store) ListBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	return s.queryBids(ctx, auctionID, false)
}

// ListAcceptedBids retrieves all accepted bids for an auction.
func (s *Store) ListAcceptedBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	return s.queryBids(ctx, auctionID, true)
}

func (s *Store) queryBids(ctx context.Context, auctionID string, acceptedOnly bool) ([]models.Bid, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.BidsTableName),
		IndexName:              aws.String(auctionBidsIndex),
		KeyConditionExpression: aws.String("auction_id = :auction"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":auction": &types.AttributeValueMemberS{Value: auctionID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if acceptedOnly {
		input.FilterExpression = aws.String("#status = :accepted")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":accepted"] = &types.AttributeValueMemberS{Value: string(models.BidAccepted)}
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}

	var bids []models.Bid
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &bids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bids: %w", err)
	}
	return bids, nil
}

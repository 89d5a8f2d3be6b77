package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// GetAuction retrieves an auction from DynamoDB by its ID.
func (s *Store) GetAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": auctionID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auction ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.AuctionsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get auction from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrAuctionNotFound
	}

	var auction models.Auction
	if err := attributevalue.UnmarshalMap(result.Item, &auction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auction: %w", err)
	}
	return &auction, nil
}

// CreateAuction persists a new auction record.
func (s *Store) CreateAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	auctionAV, err := attributevalue.MarshalMap(auction)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auction: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.AuctionsTableName),
		Item:                auctionAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create auction in DynamoDB: %w", err)
	}
	return auction, nil
}

// ListAuctions retrieves all auctions.
func (s *Store) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.AuctionsTableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan auctions table: %w", err)
	}

	var auctions []models.Auction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &auctions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auctions: %w", err)
	}
	return auctions, nil
}

// ListLiveAuctions retrieves every auction currently in the LIVE state.
func (s *Store) ListLiveAuctions(ctx context.Context) ([]models.Auction, error) {
	return s.queryLive(ctx, nil)
}

// ListOverdueLiveAuctions retrieves live auctions whose end_time has
// already passed.
func (s *Store) ListOverdueLiveAuctions(ctx context.Context, now time.Time) ([]models.Auction, error) {
	cutoff, err := now.UTC().MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}
	return s.queryLive(ctx, &types.AttributeValueMemberS{Value: string(cutoff)})
}

// queryLive queries the status index, optionally bounding end_time.
func (s *Store) queryLive(ctx context.Context, endBefore types.AttributeValue) ([]models.Auction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.AuctionsTableName),
		IndexName:              aws.String(auctionStatusIndex),
		KeyConditionExpression: aws.String("#status = :live"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":live": &types.AttributeValueMemberS{Value: string(models.AuctionLive)},
		},
	}
	if endBefore != nil {
		input.KeyConditionExpression = aws.String("#status = :live AND end_time < :cutoff")
		input.ExpressionAttributeValues[":cutoff"] = endBefore
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query live auctions: %w", err)
	}

	var auctions []models.Auction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &auctions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live auctions: %w", err)
	}
	return auctions, nil
}

// UpdateAuctionEndTime persists a countdown extension.
func (s *Store) UpdateAuctionEndTime(ctx context.Context, auctionID string, endTime time.Time) error {
	endAV, err := attributevalue.Marshal(endTime)
	if err != nil {
		return fmt.Errorf("failed to marshal end time: %w", err)
	}
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.AuctionsTableName),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: auctionID}},
		UpdateExpression:    aws.String("SET end_time = :end, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":end": endAV,
			":now": nowAV,
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return storage.ErrAuctionNotFound
		}
		return fmt.Errorf("failed to update auction end time: %w", err)
	}
	return nil
}

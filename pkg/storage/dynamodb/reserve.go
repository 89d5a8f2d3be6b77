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

// UpdateAuctionReserve sets the auction's new reserve price and appends
// the reserve-drop record in the same transaction, so the audit trail
// can never diverge from the price it explains.
func (s *Store) UpdateAuctionReserve(ctx context.Context, auction *models.Auction, newReserve int64, entry *models.ReserveAutoDropLogEntry) error {
	logItem, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal reserve drop entry: %w", err)
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: aws.String(s.AuctionsTableName),
					Key: map[string]types.AttributeValue{
						"id": strAttr(auction.Id),
					},
					UpdateExpression:    aws.String("SET reserve_price = :reserve, version = version + :one, updated_at = :now"),
					ConditionExpression: aws.String("version = :v AND #status <> :ended"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":reserve": numAttr(newReserve),
						":one":     numAttr(1),
						":v":       numAttr(auction.Version),
						":ended":   strAttr(string(models.AuctionEnded)),
						":now":     timeAttr(entry.Timestamp),
					},
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(s.OpsLogTableName),
					Item:      logItem,
				},
			},
		},
	})
	if err != nil {
		return transactErr(err, map[int]error{
			0: storage.ErrVersionConflict,
		})
	}
	return nil
}

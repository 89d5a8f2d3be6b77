package dynamodb

import (
	"context"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MarkAuctionEnded transitions the auction to ENDED. The status
// condition is the finalize idempotency guard: whichever trigger gets
// here first wins, every later one sees ErrAuctionEnded.
func (s *Store) MarkAuctionEnded(ctx context.Context, auction *models.Auction, adminLog *models.AdminActionLogEntry) error {
	items := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName: aws.String(s.AuctionsTableName),
				Key: map[string]types.AttributeValue{
					"id": strAttr(auction.Id),
				},
				UpdateExpression:    aws.String("SET #status = :ended, version = version + :one, updated_at = :now"),
				ConditionExpression: aws.String("attribute_exists(id) AND #status <> :ended"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":ended": strAttr(string(models.AuctionEnded)),
					":one":   numAttr(1),
					":now":   timeAttr(time.Now()),
				},
			},
		},
	}
	if adminLog != nil {
		logItem, err := s.opsLogPut(adminLog)
		if err != nil {
			return err
		}
		items = append(items, logItem)
	}

	if _, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return transactErr(err, map[int]error{
			0: storage.ErrAuctionEnded,
		})
	}
	return nil
}

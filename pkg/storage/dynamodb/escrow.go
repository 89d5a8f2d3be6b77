package dynamodb

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ReleaseBidEscrow atomically returns a bid's locked escrow to the
// wallet's available balance and flips the snapshot's released flag.
// The flag condition makes release idempotent per bid: a second
// release attempt fails with ErrEscrowAlreadyReleased and moves no
// money.
func (s *Store) ReleaseBidEscrow(ctx context.Context, in *storage.ReleaseEscrowInput) error {
	walletItem := types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.WalletsTableName),
			Key: map[string]types.AttributeValue{
				"user_id": strAttr(in.Wallet.UserId),
			},
			UpdateExpression:    aws.String("SET available = available + :amt, escrow = escrow - :amt, version = version + :one"),
			ConditionExpression: aws.String("escrow >= :amt AND version = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":amt": numAttr(in.Amount),
				":one": numAttr(1),
				":v":   numAttr(in.Wallet.Version),
			},
		},
	}

	updateExpr := "SET escrow.released = :true, updated_at = :now"
	bidValues := map[string]types.AttributeValue{
		":true":  &types.AttributeValueMemberBOOL{Value: true},
		":false": &types.AttributeValueMemberBOOL{Value: false},
		":now":   timeAttr(in.Audit.Timestamp),
	}
	bidUpdate := &types.Update{
		TableName: aws.String(s.BidsTableName),
		Key: map[string]types.AttributeValue{
			"id": strAttr(in.Bid.Id),
		},
		ConditionExpression: aws.String("attribute_exists(id) AND (attribute_not_exists(escrow.released) OR escrow.released = :false)"),
	}
	if in.NewBidStatus != "" {
		updateExpr += ", #status = :status"
		bidUpdate.ExpressionAttributeNames = map[string]string{"#status": "status"}
		bidValues[":status"] = strAttr(string(in.NewBidStatus))
	}
	bidUpdate.UpdateExpression = aws.String(updateExpr)
	bidUpdate.ExpressionAttributeValues = bidValues

	auditItem, err := s.auditPut(in.Audit)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{
		walletItem,
		{Update: bidUpdate},
		auditItem,
	}
	if in.AdminLog != nil {
		logItem, err := s.opsLogPut(in.AdminLog)
		if err != nil {
			return err
		}
		items = append(items, logItem)
	}

	if _, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return transactErr(err, map[int]error{
			0: storage.ErrVersionConflict,
			1: storage.ErrEscrowAlreadyReleased,
		})
	}
	return nil
}

// AdjustBidEscrow atomically applies an override's wallet delta and
// rewrites the bid row. A positive delta locks more escrow and requires
// available funds to cover it; a negative delta releases the excess.
func (s *Store) AdjustBidEscrow(ctx context.Context, in *storage.AdjustEscrowInput) error {
	condition := "escrow >= :neg AND version = :v"
	values := map[string]types.AttributeValue{
		":delta": numAttr(in.Delta),
		":one":   numAttr(1),
		":v":     numAttr(in.Wallet.Version),
		":neg":   numAttr(-in.Delta),
	}
	if in.Delta > 0 {
		condition = "available >= :delta AND version = :v"
		delete(values, ":neg")
	}
	walletItem := types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.WalletsTableName),
			Key: map[string]types.AttributeValue{
				"user_id": strAttr(in.Wallet.UserId),
			},
			UpdateExpression:          aws.String("SET available = available - :delta, escrow = escrow + :delta, version = version + :one"),
			ConditionExpression:       aws.String(condition),
			ExpressionAttributeValues: values,
		},
	}

	bidItem, err := marshalBid(in.Bid)
	if err != nil {
		return err
	}
	auditItem, err := s.auditPut(in.Audit)
	if err != nil {
		return err
	}
	logItem, err := s.opsLogPut(in.AdminLog)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			walletItem,
			{
				Put: &types.Put{
					TableName:           aws.String(s.BidsTableName),
					Item:                bidItem,
					ConditionExpression: aws.String("attribute_exists(id)"),
				},
			},
			auditItem,
			logItem,
		},
	})
	if err != nil {
		itemErr := storage.ErrVersionConflict
		if in.Delta > 0 {
			itemErr = storage.ErrInsufficientFunds
		}
		return transactErr(err, map[int]error{
			0: itemErr,
			1: storage.ErrBidNotFound,
		})
	}
	return nil
}

// UpdateBidStatus atomically writes the bid's new status and the admin
// action that caused it. No wallet items are part of the transaction.
func (s *Store) UpdateBidStatus(ctx context.Context, in *storage.BidStatusInput) error {
	logItem, err := s.opsLogPut(in.AdminLog)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName: aws.String(s.BidsTableName),
					Key: map[string]types.AttributeValue{
						"id": strAttr(in.Bid.Id),
					},
					UpdateExpression:    aws.String("SET #status = :status, updated_at = :now"),
					ConditionExpression: aws.String("attribute_exists(id)"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":status": strAttr(string(in.Bid.Status)),
						":now":    timeAttr(in.Bid.UpdatedAt),
					},
				},
			},
			logItem,
		},
	})
	if err != nil {
		return transactErr(err, map[int]error{
			0: storage.ErrBidNotFound,
		})
	}
	return nil
}

package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func numAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func strAttr(s string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: s}
}

func timeAttr(t time.Time) types.AttributeValue {
	return strAttr(t.UTC().Format(time.RFC3339Nano))
}

// walletEscrowUpdate builds the transact item that moves amount from a
// wallet's available balance into escrow. The condition covers both
// funds and the version read by the engine, so a concurrent writer or
// an overdraft both fail the whole transaction.
func (s *Store) walletEscrowUpdate(wallet *models.Wallet, amount int64) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.WalletsTableName),
			Key: map[string]types.AttributeValue{
				"user_id": strAttr(wallet.UserId),
			},
			UpdateExpression:    aws.String("SET available = available - :amt, escrow = escrow + :amt, version = version + :one"),
			ConditionExpression: aws.String("available >= :amt AND version = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":amt": numAttr(amount),
				":one": numAttr(1),
				":v":   numAttr(wallet.Version),
			},
		},
	}
}

// auditPut builds the transact item appending a wallet audit entry.
func (s *Store) auditPut(entry *models.WalletAuditLogEntry) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.AuditTableName),
			Item:      item,
		},
	}, nil
}

// opsLogPut builds the transact item appending an admin action entry.
func (s *Store) opsLogPut(entry *models.AdminActionLogEntry) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal admin log entry: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.OpsLogTableName),
			Item:      item,
		},
	}, nil
}

// InsertBidWithEscrow atomically locks escrow in the bidder's wallet,
// inserts the bid, and advances the auction's counters. Transact item
// order: wallet update, bid put, auction update, audit put.
func (s *Store) InsertBidWithEscrow(ctx context.Context, in *storage.PlaceBidInput) error {
	bidItem, err := marshalBid(in.Bid)
	if err != nil {
		return err
	}
	auditItem, err := s.auditPut(in.Audit)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			s.walletEscrowUpdate(in.Wallet, in.Bid.Escrow.Locked),
			{
				Put: &types.Put{
					TableName:           aws.String(s.BidsTableName),
					Item:                bidItem,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(s.AuctionsTableName),
					Key: map[string]types.AttributeValue{
						"id": strAttr(in.Auction.Id),
					},
					UpdateExpression:    aws.String("SET bid_count = :bc, last_sequence = :seq, version = :newv, updated_at = :now"),
					ConditionExpression: aws.String("version = :v AND #status = :live"),
					ExpressionAttributeNames: map[string]string{
						"#status": "status",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":bc":   numAttr(in.Auction.BidCount + 1),
						":seq":  numAttr(in.Bid.Sequence),
						":newv": numAttr(in.Auction.Version + 1),
						":v":    numAttr(in.Auction.Version),
						":live": strAttr(string(models.AuctionLive)),
						":now":  timeAttr(in.Bid.CreatedAt),
					},
				},
			},
			auditItem,
		},
	})
	if err != nil {
		return transactErr(err, map[int]error{
			0: storage.ErrInsufficientFunds,
			2: storage.ErrVersionConflict,
		})
	}
	return nil
}

// InsertRejectedBid atomically records a policy-rejected bid and
// consumes a sequence number. No wallet items are part of the
// transaction.
func (s *Store) InsertRejectedBid(ctx context.Context, in *storage.RejectedBidInput) error {
	bidItem, err := marshalBid(in.Bid)
	if err != nil {
		return err
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.BidsTableName),
					Item:                bidItem,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(s.AuctionsTableName),
					Key: map[string]types.AttributeValue{
						"id": strAttr(in.Auction.Id),
					},
					UpdateExpression:    aws.String("SET last_sequence = :seq, version = :newv, updated_at = :now"),
					ConditionExpression: aws.String("version = :v"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":seq":  numAttr(in.Bid.Sequence),
						":newv": numAttr(in.Auction.Version + 1),
						":v":    numAttr(in.Auction.Version),
						":now":  timeAttr(in.Bid.CreatedAt),
					},
				},
			},
		},
	})
	if err != nil {
		return transactErr(err, map[int]error{
			1: storage.ErrVersionConflict,
		})
	}
	return nil
}

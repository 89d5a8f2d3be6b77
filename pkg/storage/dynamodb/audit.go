package dynamodb

import (
	"context"
	"fmt"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Fixed partition keys for the timestamp-ordered log indexes. All
// entries of a table share one partition so a single Query returns
// them newest first.
const (
	auditPartition  = "AUDIT"
	opsLogPartition = "OPSLOG"
)

func (s *Store) queryLog(ctx context.Context, table, partition string, limit int32) ([]map[string]types.AttributeValue, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(logIndex),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": strAttr(partition),
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	return result.Items, nil
}

// ListWalletAuditEntries retrieves the most recent wallet audit
// entries, newest first.
func (s *Store) ListWalletAuditEntries(ctx context.Context, limit int32) ([]models.WalletAuditLogEntry, error) {
	items, err := s.queryLog(ctx, s.AuditTableName, auditPartition, limit)
	if err != nil {
		return nil, err
	}

	var entries []models.WalletAuditLogEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit entries: %w", err)
	}
	return entries, nil
}

// ListAdminActions retrieves the most recent admin action entries,
// newest first. Reserve-drop records share the table but are filtered
// out by kind.
func (s *Store) ListAdminActions(ctx context.Context, limit int32) ([]models.AdminActionLogEntry, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.OpsLogTableName),
		IndexName:              aws.String(logIndex),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		FilterExpression:       aws.String("kind = :kind"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   strAttr(opsLogPartition),
			":kind": strAttr(string(models.OpsAdminAction)),
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query admin actions: %w", err)
	}

	var entries []models.AdminActionLogEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal admin actions: %w", err)
	}
	return entries, nil
}

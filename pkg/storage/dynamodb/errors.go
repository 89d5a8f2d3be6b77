package dynamodb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// transactErr maps a TransactWriteItems failure onto the storage
// sentinel for whichever item's condition failed. itemErrs pairs the
// transact item index with the sentinel its conditional check should
// surface as; items without an entry fall through to the generic error.
func transactErr(err error, itemErrs map[int]error) error {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return err
	}
	for i, reason := range cancelled.CancellationReasons {
		if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
			continue
		}
		if sentinel, ok := itemErrs[i]; ok {
			return sentinel
		}
	}
	return err
}

// conditionFailed reports whether a single-item write failed its
// condition expression.
func conditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

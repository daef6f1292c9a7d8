package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

var allOperationStatuses = []models.OperationStatus{
	models.OperationPendingSignature,
	models.OperationPendingConfirmation,
	models.OperationSuccess,
	models.OperationError,
}

// CreateOperation stores a new ledger operation.
func (s *Store) CreateOperation(ctx context.Context, op *models.LedgerOperation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("failed to validate operation: %w", err)
	}
	return s.putNew(ctx, s.Tables.Operations, "id", op)
}

// GetOperation retrieves an operation by ID.
func (s *Store) GetOperation(ctx context.Context, operationID string) (*models.LedgerOperation, error) {
	var op models.LedgerOperation
	if err := s.getItem(ctx, s.Tables.Operations, stringKey("id", operationID), &op); err != nil {
		return nil, fmt.Errorf("failed to get operation %s: %w", operationID, err)
	}
	return &op, nil
}

// ListOperations queries the status index, once per status when the filter leaves it open.
func (s *Store) ListOperations(ctx context.Context, filter storage.OperationFilter) ([]models.LedgerOperation, error) {
	statuses := allOperationStatuses
	if filter.Status != "" {
		statuses = []models.OperationStatus{filter.Status}
	}

	var ops []models.LedgerOperation
	for _, status := range statuses {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.Tables.Operations),
			IndexName:              aws.String(operationsByStatusIndex),
			KeyConditionExpression: aws.String("#status = :s"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":s": &types.AttributeValueMemberS{Value: string(status)},
			},
			ScanIndexForward: aws.Bool(true),
		}
		if filter.Type != "" {
			input.FilterExpression = aws.String("#type = :t")
			input.ExpressionAttributeNames["#type"] = "type"
			input.ExpressionAttributeValues[":t"] = &types.AttributeValueMemberS{Value: string(filter.Type)}
		}
		if filter.UserId != "" {
			clause := "user_id = :u"
			if input.FilterExpression != nil {
				clause = *input.FilterExpression + " AND " + clause
			}
			input.FilterExpression = aws.String(clause)
			input.ExpressionAttributeValues[":u"] = &types.AttributeValueMemberS{Value: filter.UserId}
		}

		items, err := s.queryAll(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []models.LedgerOperation
		if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operations: %w", err)
		}
		ops = append(ops, page...)
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].CreatedAt.Before(ops[j].CreatedAt)
	})
	if filter.Limit > 0 && len(ops) > filter.Limit {
		ops = ops[:filter.Limit]
	}
	return ops, nil
}

// TransitionOperation writes a result onto an operation still in the from status.
func (s *Store) TransitionOperation(ctx context.Context, operationID string, from models.OperationStatus, result models.OperationResult) (*models.LedgerOperation, error) {
	if from.IsTerminal() {
		return nil, storage.ErrOperationFinalized
	}

	expr := newUpdateExpr()
	expr.set("status", result.Status)
	if result.TransactionId != "" {
		expr.set("transaction_id", result.TransactionId)
	}
	if result.ErrorMessage != "" {
		expr.set("error_message", result.ErrorMessage)
	}
	if result.ConsensusTime != "" {
		expr.set("consensus_time", result.ConsensusTime)
	}
	if result.CompletedAt != nil {
		expr.set("completed_at", *result.CompletedAt)
	}
	expr.values[":from"] = &types.AttributeValueMemberS{Value: string(from)}
	updateExpression, err := expr.build()
	if err != nil {
		return nil, fmt.Errorf("failed to build operation update: %w", err)
	}

	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.Tables.Operations),
		Key:                                 stringKey("id", operationID),
		UpdateExpression:                    aws.String(updateExpression),
		ConditionExpression:                 aws.String("#status = :from"),
		ExpressionAttributeNames:            expr.names,
		ExpressionAttributeValues:           expr.values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			if len(condCheckFailed.Item) == 0 {
				return nil, storage.ErrNotFound
			}
			return nil, storage.ErrOperationFinalized
		}
		return nil, fmt.Errorf("failed to update operation %s: %w", operationID, err)
	}

	var op models.LedgerOperation
	if err := attributevalue.UnmarshalMap(out.Attributes, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}
	return &op, nil
}

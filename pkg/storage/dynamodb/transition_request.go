package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// TransitionRequest performs a conditional status change of a request.
// A move into a terminal status also deletes the employee's active lock in the same transaction.
// The pending_signature -> approved move is the transfer lock: only one caller can win it.
func (s *Store) TransitionRequest(ctx context.Context, requestID string, from, to models.RequestStatus, update models.RequestUpdate) (*models.WageAdvanceRequest, error) {
	current, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if current.Status != from {
		return nil, storage.ErrStatusConflict
	}

	expr, err := buildTransitionExpr(to, update, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	expr.names["#status"] = "status"
	expr.values[":from"] = &types.AttributeValueMemberS{Value: string(from)}
	updateExpression, err := expr.build()
	if err != nil {
		return nil, fmt.Errorf("failed to build transition expression: %w", err)
	}

	if to.IsTerminal() {
		return s.transitionAndRelease(ctx, current, updateExpression, expr)
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Tables.Requests),
		Key:                       stringKey("id", requestID),
		UpdateExpression:          aws.String(updateExpression),
		ConditionExpression:       aws.String("#status = :from"),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to update request status to %s: %w", to, err)
	}

	var req models.WageAdvanceRequest
	if err := attributevalue.UnmarshalMap(result.Attributes, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request after transition: %w", err)
	}
	return &req, nil
}

// transitionAndRelease updates the request and deletes its lock item atomically.
func (s *Store) transitionAndRelease(ctx context.Context, current *models.WageAdvanceRequest, updateExpression string, expr *updateExpr) (*models.WageAdvanceRequest, error) {
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 aws.String(s.Tables.Requests),
					Key:                       stringKey("id", current.Id),
					UpdateExpression:          aws.String(updateExpression),
					ConditionExpression:       aws.String("#status = :from"),
					ExpressionAttributeNames:  expr.names,
					ExpressionAttributeValues: expr.values,
				},
			},
			{
				Delete: &types.Delete{
					TableName:           aws.String(s.Tables.ActiveRequests),
					Key:                 stringKey("employee_id", current.EmployeeId),
					ConditionExpression: aws.String("attribute_not_exists(employee_id) OR request_id = :rid"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":rid": &types.AttributeValueMemberS{Value: current.Id},
					},
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if cancellationCode(err, 0) == "ConditionalCheckFailed" {
			return nil, storage.ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to execute terminal transition: %w", err)
	}

	return s.GetRequest(ctx, current.Id)
}

func buildTransitionExpr(to models.RequestStatus, update models.RequestUpdate, now time.Time) (*updateExpr, error) {
	expr := newUpdateExpr()
	expr.setRaw("#status = :to")
	expr.values[":to"] = &types.AttributeValueMemberS{Value: string(to)}
	expr.set("updated_at", now)
	expr.setRaw("#version = #version + :inc")
	expr.names["#version"] = "version"
	expr.values[":inc"] = &types.AttributeValueMemberN{Value: "1"}

	if update.ScheduleId != "" {
		expr.set("schedule_id", update.ScheduleId)
	}
	if update.ScheduledTransactionId != "" {
		expr.set("scheduled_transaction_id", update.ScheduledTransactionId)
	}
	if update.ScheduleExpiresAt != nil {
		expr.set("schedule_expires_at", *update.ScheduleExpiresAt)
	}
	if update.DeleteKeyRef != "" {
		expr.set("delete_key_ref", update.DeleteKeyRef)
	}
	if update.Memo != "" {
		expr.set("memo", update.Memo)
	}
	if update.ResetApprovals {
		expr.set("decider_approvals", []models.DeciderApproval{})
		expr.remove("decider_ids")
	}
	if update.RejectedBy != "" {
		expr.set("rejected_by", update.RejectedBy)
	}
	if update.RejectionReason != "" {
		expr.set("rejection_reason", update.RejectionReason)
	}
	if update.TransferTransactionId != "" {
		expr.set("transfer_transaction_id", update.TransferTransactionId)
	}
	if update.CompletedAt != nil {
		expr.set("completed_at", *update.CompletedAt)
	}
	return expr, expr.err
}

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

// activeRequestLock is the item that enforces one active request per employee.
type activeRequestLock struct {
	EmployeeId string    `dynamodbav:"employee_id"`
	RequestId  string    `dynamodbav:"request_id"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
}

// GetRequest retrieves a wage advance request by its ID.
func (s *Store) GetRequest(ctx context.Context, requestID string) (*models.WageAdvanceRequest, error) {
	var req models.WageAdvanceRequest
	if err := s.getItem(ctx, s.Tables.Requests, stringKey("id", requestID), &req); err != nil {
		return nil, fmt.Errorf("failed to get request %s: %w", requestID, err)
	}
	return &req, nil
}

// FindActiveRequest follows the employee's lock item to the request holding it.
func (s *Store) FindActiveRequest(ctx context.Context, employeeID string) (*models.WageAdvanceRequest, error) {
	var lock activeRequestLock
	if err := s.getItem(ctx, s.Tables.ActiveRequests, stringKey("employee_id", employeeID), &lock); err != nil {
		return nil, fmt.Errorf("failed to get active request lock for %s: %w", employeeID, err)
	}
	return s.GetRequest(ctx, lock.RequestId)
}

// ListRequestsByEmployee returns the employee's requests, newest first.
func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID string) ([]models.WageAdvanceRequest, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Requests),
		IndexName:              aws.String(requestsByEmployeeIndex),
		KeyConditionExpression: aws.String("employee_id = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: employeeID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRequests(items)
}

// ListRequestsByEnterprise runs one index query per requested status.
func (s *Store) ListRequestsByEnterprise(ctx context.Context, entrepriseID string, statuses ...models.RequestStatus) ([]models.WageAdvanceRequest, error) {
	var all []models.WageAdvanceRequest
	for _, status := range statuses {
		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.Tables.Requests),
			IndexName:              aws.String(requestsByEnterpriseIndex),
			KeyConditionExpression: aws.String("entreprise_id = :e AND #status = :s"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":e": &types.AttributeValueMemberS{Value: entrepriseID},
				":s": &types.AttributeValueMemberS{Value: string(status)},
			},
		})
		if err != nil {
			return nil, err
		}
		reqs, err := unmarshalRequests(items)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

func (s *Store) ListRequestsByStatus(ctx context.Context, status models.RequestStatus) ([]models.WageAdvanceRequest, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Requests),
		IndexName:              aws.String(requestsByStatusIndex),
		KeyConditionExpression: aws.String("#status = :s"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return unmarshalRequests(items)
}

func unmarshalRequests(items []map[string]types.AttributeValue) ([]models.WageAdvanceRequest, error) {
	var reqs []models.WageAdvanceRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &reqs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requests: %w", err)
	}
	return reqs, nil
}

// CreateRequest writes the request and the employee's active lock in one transaction.
func (s *Store) CreateRequest(ctx context.Context, req *models.WageAdvanceRequest) error {
	if req.DeciderApprovals == nil {
		req.DeciderApprovals = []models.DeciderApproval{}
	}

	slog.Log(ctx, slog.LevelDebug, "creating wage advance request", "request_id", req.Id, "employee_id", req.EmployeeId)

	reqAV, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	lockAV, err := attributevalue.MarshalMap(activeRequestLock{
		EmployeeId: req.EmployeeId,
		RequestId:  req.Id,
		CreatedAt:  req.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal active request lock: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.ActiveRequests),
					Item:                lockAV,
					ConditionExpression: aws.String("attribute_not_exists(employee_id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Requests),
					Item:                reqAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		switch {
		case cancellationCode(err, 0) == "ConditionalCheckFailed":
			return storage.ErrActiveRequestExists
		case cancellationCode(err, 1) == "ConditionalCheckFailed":
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to execute create request transaction: %w", err)
	}

	return nil
}

// AppendApproval adds one decider entry under the pending_signature and not-yet-voted conditions.
func (s *Store) AppendApproval(ctx context.Context, requestID string, approval models.DeciderApproval) (*models.WageAdvanceRequest, error) {
	approvalsAV, err := attributevalue.Marshal([]models.DeciderApproval{approval})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal approval: %w", err)
	}
	nowAV, err := attributevalue.Marshal(approval.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.Tables.Requests),
		Key:       stringKey("id", requestID),
		UpdateExpression: aws.String(
			"SET decider_approvals = list_append(if_not_exists(decider_approvals, :empty), :approval), " +
				"updated_at = :now, version = version + :inc ADD decider_ids :decider_set"),
		ConditionExpression: aws.String(
			"#status = :pending_signature AND (attribute_not_exists(decider_ids) OR NOT contains(decider_ids, :decider))"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty":             &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":approval":          approvalsAV,
			":now":               nowAV,
			":inc":               &types.AttributeValueMemberN{Value: "1"},
			":decider_set":       &types.AttributeValueMemberSS{Value: []string{approval.DeciderId}},
			":decider":           &types.AttributeValueMemberS{Value: approval.DeciderId},
			":pending_signature": &types.AttributeValueMemberS{Value: string(models.RequestPendingSignature)},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, classifyApprovalFailure(condCheckFailed.Item, approval.DeciderId)
		}
		return nil, fmt.Errorf("failed to append approval: %w", err)
	}

	var req models.WageAdvanceRequest
	if err := attributevalue.UnmarshalMap(result.Attributes, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request after approval: %w", err)
	}
	return &req, nil
}

// classifyApprovalFailure inspects the pre-image returned on a failed condition.
func classifyApprovalFailure(item map[string]types.AttributeValue, deciderID string) error {
	if len(item) == 0 {
		return storage.ErrNotFound
	}
	var current models.WageAdvanceRequest
	if err := attributevalue.UnmarshalMap(item, &current); err != nil {
		return fmt.Errorf("failed to unmarshal request on failed approval: %w", err)
	}
	if current.Status != models.RequestPendingSignature {
		return storage.ErrStatusConflict
	}
	return storage.ErrDuplicateApproval
}

package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/chris/wage-advance-ledger/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOperation(id string, status models.OperationStatus, created time.Time) *models.LedgerOperation {
	return &models.LedgerOperation{
		Id:        id,
		Type:      models.OpShopPaymentAccept,
		Status:    status,
		UserId:    "emp-1",
		CreatedAt: created,
		Details: models.OperationDetails{
			ShopPayment: &models.ShopPaymentDetails{EmployeeId: "emp-1", EmployeeAccountId: "0.0.1001", ShopUserId: "shop-1", ShopAccountId: "0.0.2001", Amount: 100},
		},
	}
}

func TestCreateOperation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("PutItem", mock.Anything, mock.AnythingOfType("*dynamodb.PutItemInput")).Return(&dynamodb.PutItemOutput{}, nil).Once()

		err := store.CreateOperation(context.Background(), newTestOperation("op-1", models.OperationPendingSignature, time.Now()))

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Mismatched Payload", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}
		op := newTestOperation("op-1", models.OperationPendingSignature, time.Now())
		op.Type = models.OpTokenAssociate

		err := store.CreateOperation(context.Background(), op)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to validate operation")
		mockClient.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate Id", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		err := store.CreateOperation(context.Background(), newTestOperation("op-1", models.OperationPendingSignature, time.Now()))

		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
		mockClient.AssertExpectations(t)
	})
}

func TestListOperations(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Follows Pages", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		first, _ := attributevalue.MarshalMap(newTestOperation("op-1", models.OperationPendingSignature, base))
		second, _ := attributevalue.MarshalMap(newTestOperation("op-2", models.OperationPendingSignature, base.Add(time.Minute)))

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
			Items:            []map[string]types.AttributeValue{first},
			LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "op-1"}},
		}, nil).Once()
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return len(in.ExclusiveStartKey) == 1
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{second}}, nil).Once()

		ops, err := store.ListOperations(context.Background(), storage.OperationFilter{
			Status: models.OperationPendingSignature,
			Type:   models.OpShopPaymentAccept,
		})

		require.NoError(t, err)
		require.Len(t, ops, 2)
		assert.Equal(t, "op-1", ops[0].Id)
		assert.Equal(t, "op-2", ops[1].Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Query Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("query failed")).Once()

		_, err := store.ListOperations(context.Background(), storage.OperationFilter{Status: models.OperationSuccess})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query operations")
		mockClient.AssertExpectations(t)
	})
}

func TestTransitionOperation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}
		after := newTestOperation("op-1", models.OperationSuccess, now)
		afterAV, _ := attributevalue.MarshalMap(after)

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			from := in.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS)
			return from.Value == string(models.OperationPendingConfirmation)
		})).Return(&dynamodb.UpdateItemOutput{Attributes: afterAV}, nil).Once()

		op, err := store.TransitionOperation(context.Background(), "op-1", models.OperationPendingConfirmation,
			models.OperationResult{Status: models.OperationSuccess, ConsensusTime: "1700000000.000000001", CompletedAt: &now})

		require.NoError(t, err)
		assert.Equal(t, models.OperationSuccess, op.Status)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Finalized", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}
		existing, _ := attributevalue.MarshalMap(newTestOperation("op-1", models.OperationError, now))

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{Item: existing}).Once()

		_, err := store.TransitionOperation(context.Background(), "op-1", models.OperationPendingSignature,
			models.OperationResult{Status: models.OperationError, ErrorMessage: "expired"})

		assert.ErrorIs(t, err, storage.ErrOperationFinalized)
		mockClient.AssertExpectations(t)
	})

	t.Run("Terminal From Status", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, Tables: testTables}

		_, err := store.TransitionOperation(context.Background(), "op-1", models.OperationSuccess,
			models.OperationResult{Status: models.OperationError})

		assert.ErrorIs(t, err, storage.ErrOperationFinalized)
		mockClient.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
	})
}

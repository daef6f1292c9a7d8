package balance

import (
	"context"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payment(id, account string, amount int64, status models.OperationStatus) models.LedgerOperation {
	return models.LedgerOperation{
		Id:     id,
		Type:   models.OpShopPaymentAccept,
		Status: status,
		UserId: "emp-1",
		Details: models.OperationDetails{ShopPayment: &models.ShopPaymentDetails{
			EmployeeId: "emp-1", EmployeeAccountId: account, ShopAccountId: "0.0.900", Amount: amount,
		}},
		CreatedAt: time.Now(),
	}
}

func TestCompute(t *testing.T) {
	employee := &models.User{Id: "emp-1", AccountId: "0.0.1001"}

	t.Run("Sums By Status", func(t *testing.T) {
		requests := []models.WageAdvanceRequest{
			{Status: models.RequestCompleted, RequestedAmount: 5000},
			{Status: models.RequestApproved, RequestedAmount: 1000},
			{Status: models.RequestPendingSignature, RequestedAmount: 700},
			{Status: models.RequestPending, RequestedAmount: 300},
			{Status: models.RequestRejected, RequestedAmount: 9999},
		}
		payments := []models.LedgerOperation{
			payment("p1", "0.0.1001", 2000, models.OperationSuccess),
			payment("p2", "0.0.1001", 400, models.OperationPendingConfirmation),
			payment("p3", "0.0.2002", 800, models.OperationSuccess),
		}

		b := Compute(employee, requests, payments)
		assert.Equal(t, int64(6000), b.LifetimeAdvanced)
		assert.Equal(t, int64(1000), b.PendingAmount)
		assert.Equal(t, int64(2000), b.TotalShopPayments)
		assert.Equal(t, int64(4000), b.CurrentBalance)
	})

	t.Run("Never Negative", func(t *testing.T) {
		requests := []models.WageAdvanceRequest{{Status: models.RequestCompleted, RequestedAmount: 10000}}
		payments := []models.LedgerOperation{payment("p1", "0.0.1001", 12000, models.OperationSuccess)}

		b := Compute(employee, requests, payments)
		assert.Equal(t, int64(12000), b.TotalShopPayments)
		assert.Equal(t, int64(0), b.CurrentBalance)
	})

	t.Run("No Account Matches Nothing", func(t *testing.T) {
		b := Compute(&models.User{Id: "emp-1"}, nil, []models.LedgerOperation{payment("p1", "", 10, models.OperationSuccess)})
		assert.Equal(t, int64(0), b.TotalShopPayments)
	})
}

func TestEmployeeBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateUser(ctx, &models.User{Id: "emp-1", Category: models.CategoryEmployee, AccountId: "0.0.1001"}))
	require.NoError(t, store.CreateRequest(ctx, &models.WageAdvanceRequest{
		Id: "r1", EmployeeId: "emp-1", Status: models.RequestPending, RequestedAmount: 500, CreatedAt: time.Now(),
	}))
	_, err := store.TransitionRequest(ctx, "r1", models.RequestPending, models.RequestCompleted, models.RequestUpdate{})
	require.NoError(t, err)
	op := payment("p1", "0.0.1001", 200, models.OperationSuccess)
	require.NoError(t, store.CreateOperation(ctx, &op))

	agg := NewAggregator(store)

	t.Run("Success", func(t *testing.T) {
		b, err := agg.EmployeeBalance(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, &Balance{EmployeeId: "emp-1", LifetimeAdvanced: 500, TotalShopPayments: 200, CurrentBalance: 300}, b)
	})

	t.Run("Unknown Employee", func(t *testing.T) {
		_, err := agg.EmployeeBalance(ctx, "ghost")
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})
}

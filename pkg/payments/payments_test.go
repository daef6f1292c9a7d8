package payments_test

import (
	"context"
	"testing"

	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/payments"
	"github.com/chris/wage-advance-ledger/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, advanced int64) (*payments.Service, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t, 1)
	if advanced > 0 {
		env.SeedRequest(t, models.WageAdvanceRequest{Id: "r1", EmployeeId: testutil.EmployeeID, RequestedAmount: advanced, Status: models.RequestCompleted})
	}
	return payments.NewService(env.Store, balance.NewAggregator(env.Store), nil), env
}

func TestPrepareShopPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, env := newService(t, 1000)

		op, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 400)
		require.NoError(t, err)
		assert.Equal(t, models.OpShopPaymentAccept, op.Type)
		assert.Equal(t, models.OperationPendingSignature, op.Status)
		assert.Equal(t, testutil.EmployeeID, op.UserId)
		assert.Equal(t, env.Token.TokenId, op.TokenId)
		assert.Equal(t, testutil.ShopAccount, op.Details.ShopPayment.ShopAccountId)
		assert.Equal(t, testutil.EmployeeAccount, op.Details.ShopPayment.EmployeeAccountId)

		stored, err := env.Store.GetOperation(ctx, op.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(400), stored.Details.ShopPayment.Amount)
	})

	t.Run("In-flight Payments Reduce Availability", func(t *testing.T) {
		svc, _ := newService(t, 1000)

		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 700)
		require.NoError(t, err)
		_, err = svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 400)
		assert.ErrorIs(t, err, payments.ErrInsufficientBalance)
		_, err = svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 300)
		assert.NoError(t, err)
	})

	t.Run("Insufficient Balance", func(t *testing.T) {
		svc, _ := newService(t, 0)
		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 1)
		assert.ErrorIs(t, err, payments.ErrInsufficientBalance)
	})

	t.Run("Cashier Accepted", func(t *testing.T) {
		svc, env := newService(t, 1000)
		env.AddUser(t, models.User{Id: "cash-1", Name: "Till", Category: models.CategoryCashier, AccountId: "0.0.3002"})
		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, "cash-1", 10)
		assert.NoError(t, err)
	})

	t.Run("Not A Shop", func(t *testing.T) {
		svc, _ := newService(t, 1000)
		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, "dec-1", 10)
		assert.ErrorIs(t, err, payments.ErrForbidden)
	})

	t.Run("Not An Employee", func(t *testing.T) {
		svc, _ := newService(t, 1000)
		_, err := svc.PrepareShopPayment(ctx, "dec-1", testutil.ShopID, 10)
		assert.ErrorIs(t, err, payments.ErrForbidden)
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		svc, _ := newService(t, 1000)
		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, -5)
		assert.ErrorIs(t, err, payments.ErrValidation)
	})

	t.Run("Unknown Shop", func(t *testing.T) {
		svc, _ := newService(t, 1000)
		_, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, "ghost", 10)
		assert.ErrorIs(t, err, payments.ErrNotFound)
	})
}

func TestPrepareAssociation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, env := newService(t, 0)
		op, err := svc.PrepareAssociation(ctx, testutil.EmployeeID)
		require.NoError(t, err)
		assert.Equal(t, models.OpTokenAssociate, op.Type)
		assert.Equal(t, models.OperationPendingSignature, op.Status)
		assert.Equal(t, env.Token.TokenId, op.TokenId)
		assert.Equal(t, testutil.EmployeeAccount, op.Details.TokenAssociation.AccountId)
	})

	t.Run("No Token", func(t *testing.T) {
		env := testutil.NewEnv(t, 0)
		svc := payments.NewService(env.Store, balance.NewAggregator(env.Store), nil)
		_, err := svc.PrepareAssociation(ctx, testutil.EmployeeID)
		assert.ErrorIs(t, err, payments.ErrPreconditionFailed)
	})
}

func TestAcknowledgeSignature(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 1000)
	op, err := svc.PrepareShopPayment(ctx, testutil.EmployeeID, testutil.ShopID, 100)
	require.NoError(t, err)

	t.Run("Only The Owner", func(t *testing.T) {
		_, err := svc.AcknowledgeSignature(ctx, op.Id, testutil.OtherEmployeeID, "0.0.1001@100.1")
		assert.ErrorIs(t, err, payments.ErrForbidden)
	})

	t.Run("Transaction Id Required", func(t *testing.T) {
		_, err := svc.AcknowledgeSignature(ctx, op.Id, testutil.EmployeeID, "")
		assert.ErrorIs(t, err, payments.ErrValidation)
	})

	t.Run("Unknown Operation", func(t *testing.T) {
		_, err := svc.AcknowledgeSignature(ctx, "ghost", testutil.EmployeeID, "0.0.1001@100.1")
		assert.ErrorIs(t, err, payments.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		updated, err := svc.AcknowledgeSignature(ctx, op.Id, testutil.EmployeeID, "0.0.1001@100.1")
		require.NoError(t, err)
		assert.Equal(t, models.OperationPendingConfirmation, updated.Status)
		assert.Equal(t, "0.0.1001@100.1", updated.TransactionId)
	})

	t.Run("Second Acknowledgement Conflicts", func(t *testing.T) {
		_, err := svc.AcknowledgeSignature(ctx, op.Id, testutil.EmployeeID, "0.0.1001@100.2")
		assert.ErrorIs(t, err, payments.ErrConflict)
	})
}

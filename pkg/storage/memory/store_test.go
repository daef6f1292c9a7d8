package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRequest(id, employee string) *models.WageAdvanceRequest {
	now := time.Now().UTC()
	return &models.WageAdvanceRequest{
		Id:              id,
		EmployeeId:      employee,
		EntrepriseId:    "ent-1",
		RequestedAmount: 100,
		Status:          models.RequestPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent Creates Keep One Active", func(t *testing.T) {
		store := New()
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := store.CreateRequest(ctx, pendingRequest(fmt.Sprintf("req-%d", i), "emp-1"))
				if err == nil {
					wins.Add(1)
					return
				}
				assert.ErrorIs(t, err, storage.ErrActiveRequestExists)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("Terminal Transition Releases Lock", func(t *testing.T) {
		store := New()
		require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))
		_, err := store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{ScheduleId: "0.0.1"})
		require.NoError(t, err)

		_, err = store.TransitionRequest(ctx, "req-1", models.RequestPendingSignature, models.RequestRejected, models.RequestUpdate{RejectedBy: "dec-1"})
		require.NoError(t, err)

		_, err = store.FindActiveRequest(ctx, "emp-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, store.CreateRequest(ctx, pendingRequest("req-2", "emp-1")))
	})

	t.Run("Approved Keeps Lock", func(t *testing.T) {
		store := New()
		require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))
		_, err := store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
		require.NoError(t, err)
		_, err = store.TransitionRequest(ctx, "req-1", models.RequestPendingSignature, models.RequestApproved, models.RequestUpdate{})
		require.NoError(t, err)

		err = store.CreateRequest(ctx, pendingRequest("req-2", "emp-1"))
		assert.ErrorIs(t, err, storage.ErrActiveRequestExists)
	})
}

func TestTransitionRequest(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))

	updated, err := store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{ScheduleId: "0.0.77"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, "0.0.77", updated.ScheduleId)

	_, err = store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
	assert.ErrorIs(t, err, storage.ErrStatusConflict)

	_, err = store.TransitionRequest(ctx, "missing", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListRequestsByStatus(t *testing.T) {
	ctx := context.Background()
	store := New()
	older := pendingRequest("req-1", "emp-1")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, store.CreateRequest(ctx, older))
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-2", "emp-2")))
	require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-3", "emp-3")))
	_, err := store.TransitionRequest(ctx, "req-3", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
	require.NoError(t, err)

	pending, err := store.ListRequestsByStatus(ctx, models.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "req-1", pending[0].Id)
	assert.Equal(t, "req-2", pending[1].Id)

	signing, err := store.ListRequestsByStatus(ctx, models.RequestPendingSignature)
	require.NoError(t, err)
	require.Len(t, signing, 1)
	assert.Equal(t, "req-3", signing[0].Id)
}

func TestAppendApproval(t *testing.T) {
	ctx := context.Background()

	t.Run("Exactly One Appender Sees Full Count", func(t *testing.T) {
		store := New()
		require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))
		_, err := store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
		require.NoError(t, err)

		const deciders = 5
		var full atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < deciders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				after, err := store.AppendApproval(ctx, "req-1", models.DeciderApproval{
					DeciderId: fmt.Sprintf("dec-%d", i), Approved: true, Timestamp: time.Now(),
				})
				if !assert.NoError(t, err) {
					return
				}
				if after.ApprovalCount() == deciders {
					full.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), full.Load())
	})

	t.Run("Duplicate Decider", func(t *testing.T) {
		store := New()
		require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))
		_, err := store.TransitionRequest(ctx, "req-1", models.RequestPending, models.RequestPendingSignature, models.RequestUpdate{})
		require.NoError(t, err)

		_, err = store.AppendApproval(ctx, "req-1", models.DeciderApproval{DeciderId: "dec-1", Approved: true})
		require.NoError(t, err)
		_, err = store.AppendApproval(ctx, "req-1", models.DeciderApproval{DeciderId: "dec-1", Approved: true})
		assert.ErrorIs(t, err, storage.ErrDuplicateApproval)
	})

	t.Run("Wrong Status", func(t *testing.T) {
		store := New()
		require.NoError(t, store.CreateRequest(ctx, pendingRequest("req-1", "emp-1")))

		_, err := store.AppendApproval(ctx, "req-1", models.DeciderApproval{DeciderId: "dec-1", Approved: true})
		assert.ErrorIs(t, err, storage.ErrStatusConflict)
	})
}

func TestTransitionOperation(t *testing.T) {
	ctx := context.Background()
	store := New()
	op := &models.LedgerOperation{
		Id:      "op-1",
		Type:    models.OpTokenAssociate,
		Status:  models.OperationPendingSignature,
		UserId:  "emp-1",
		Details: models.OperationDetails{TokenAssociation: &models.TokenAssociationDetails{AccountId: "0.0.1001"}},
	}
	require.NoError(t, store.CreateOperation(ctx, op))

	done, err := store.TransitionOperation(ctx, "op-1", models.OperationPendingSignature, models.OperationResult{Status: models.OperationError, ErrorMessage: "expired"})
	require.NoError(t, err)
	assert.Equal(t, models.OperationError, done.Status)

	_, err = store.TransitionOperation(ctx, "op-1", models.OperationPendingSignature, models.OperationResult{Status: models.OperationSuccess})
	assert.ErrorIs(t, err, storage.ErrOperationFinalized)

	got, err := store.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, "expired", got.ErrorMessage)
}

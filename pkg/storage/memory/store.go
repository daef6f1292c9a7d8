// Package memory is a process-local Storage used by tests and the local development server.
// It mirrors the conditional-write semantics of the DynamoDB store under one mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/storage"
)

type Store struct {
	mu          sync.Mutex
	users       map[string]models.User
	enterprises map[string]models.Enterprise
	tokens      map[string]models.EnterpriseToken
	requests    map[string]models.WageAdvanceRequest
	active      map[string]string
	operations  map[string]models.LedgerOperation
	secrets     map[string]models.SealedSecret
	connections map[string]struct{}
	nowFn       func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:       map[string]models.User{},
		enterprises: map[string]models.Enterprise{},
		tokens:      map[string]models.EnterpriseToken{},
		requests:    map[string]models.WageAdvanceRequest{},
		active:      map[string]string{},
		operations:  map[string]models.LedgerOperation{},
		secrets:     map[string]models.SealedSecret{},
		connections: map[string]struct{}{},
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

var _ storage.Storage = (*Store)(nil)

// SetClock overrides the timestamp source for updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

func cloneRequest(r models.WageAdvanceRequest) models.WageAdvanceRequest {
	r.DeciderApprovals = append([]models.DeciderApproval{}, r.DeciderApprovals...)
	if r.DeciderIds != nil {
		r.DeciderIds = append([]string{}, r.DeciderIds...)
	}
	return r
}

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Id]; ok {
		return storage.ErrAlreadyExists
	}
	s.users[user.Id] = *user
	return nil
}

func (s *Store) ListUsersByEnterprise(_ context.Context, entrepriseID string, category models.UserCategory) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.EntrepriseId == entrepriseID && u.Category == category {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Store) GetEnterprise(_ context.Context, entrepriseID string) (*models.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enterprises[entrepriseID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (s *Store) CreateEnterprise(_ context.Context, enterprise *models.Enterprise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enterprises[enterprise.Id]; ok {
		return storage.ErrAlreadyExists
	}
	s.enterprises[enterprise.Id] = *enterprise
	return nil
}

func (s *Store) GetEnterpriseToken(_ context.Context, entrepriseID string) (*models.EnterpriseToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[entrepriseID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t.SupplyKeyList = append([]string{}, t.SupplyKeyList...)
	return &t, nil
}

func (s *Store) CreateEnterpriseToken(_ context.Context, token *models.EnterpriseToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.EntrepriseId]; ok {
		return storage.ErrAlreadyExists
	}
	s.tokens[token.EntrepriseId] = *token
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (*models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r = cloneRequest(r)
	return &r, nil
}

func (s *Store) FindActiveRequest(_ context.Context, employeeID string) (*models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[employeeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r := cloneRequest(s.requests[id])
	return &r, nil
}

func (s *Store) ListRequestsByEmployee(_ context.Context, employeeID string) ([]models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WageAdvanceRequest
	for _, r := range s.requests {
		if r.EmployeeId == employeeID {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListRequestsByEnterprise(_ context.Context, entrepriseID string, statuses ...models.RequestStatus) ([]models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[models.RequestStatus]bool{}
	for _, st := range statuses {
		wanted[st] = true
	}
	var out []models.WageAdvanceRequest
	for _, r := range s.requests {
		if r.EntrepriseId == entrepriseID && wanted[r.Status] {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListRequestsByStatus(_ context.Context, status models.RequestStatus) ([]models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WageAdvanceRequest
	for _, r := range s.requests {
		if r.Status == status {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateRequest(_ context.Context, req *models.WageAdvanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.active[req.EmployeeId]; held {
		return storage.ErrActiveRequestExists
	}
	if _, ok := s.requests[req.Id]; ok {
		return storage.ErrAlreadyExists
	}
	if req.DeciderApprovals == nil {
		req.DeciderApprovals = []models.DeciderApproval{}
	}
	s.requests[req.Id] = cloneRequest(*req)
	s.active[req.EmployeeId] = req.Id
	return nil
}

func (s *Store) TransitionRequest(_ context.Context, requestID string, from, to models.RequestStatus, update models.RequestUpdate) (*models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if r.Status != from {
		return nil, storage.ErrStatusConflict
	}
	r = cloneRequest(r)
	storage.ApplyRequestUpdate(&r, to, update, s.nowFn())
	s.requests[requestID] = r
	if to.IsTerminal() && s.active[r.EmployeeId] == r.Id {
		delete(s.active, r.EmployeeId)
	}
	out := cloneRequest(r)
	return &out, nil
}

func (s *Store) AppendApproval(_ context.Context, requestID string, approval models.DeciderApproval) (*models.WageAdvanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if r.Status != models.RequestPendingSignature {
		return nil, storage.ErrStatusConflict
	}
	for _, id := range r.DeciderIds {
		if id == approval.DeciderId {
			return nil, storage.ErrDuplicateApproval
		}
	}
	r = cloneRequest(r)
	r.DeciderApprovals = append(r.DeciderApprovals, approval)
	r.DeciderIds = append(r.DeciderIds, approval.DeciderId)
	r.Version++
	r.UpdatedAt = approval.Timestamp
	s.requests[requestID] = r
	out := cloneRequest(r)
	return &out, nil
}

func (s *Store) CreateOperation(_ context.Context, op *models.LedgerOperation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.operations[op.Id]; ok {
		return storage.ErrAlreadyExists
	}
	s.operations[op.Id] = *op
	return nil
}

func (s *Store) GetOperation(_ context.Context, operationID string) (*models.LedgerOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.operations[operationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &op, nil
}

func (s *Store) ListOperations(_ context.Context, filter storage.OperationFilter) ([]models.LedgerOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerOperation
	for _, op := range s.operations {
		if filter.Matches(&op) {
			out = append(out, op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) TransitionOperation(_ context.Context, operationID string, from models.OperationStatus, result models.OperationResult) (*models.LedgerOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.operations[operationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if from.IsTerminal() || op.Status != from {
		return nil, storage.ErrOperationFinalized
	}
	op.Status = result.Status
	if result.TransactionId != "" {
		op.TransactionId = result.TransactionId
	}
	if result.ErrorMessage != "" {
		op.ErrorMessage = result.ErrorMessage
	}
	if result.ConsensusTime != "" {
		op.ConsensusTime = result.ConsensusTime
	}
	if result.CompletedAt != nil {
		op.CompletedAt = result.CompletedAt
	}
	s.operations[operationID] = op
	return &op, nil
}

func (s *Store) PutSecret(_ context.Context, secret *models.SealedSecret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[secret.Ref]; ok {
		return storage.ErrAlreadyExists
	}
	s.secrets[secret.Ref] = *secret
	return nil
}

func (s *Store) GetSecret(_ context.Context, ref string) (*models.SealedSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.secrets[ref]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &sec, nil
}

func (s *Store) DeleteSecret(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, ref)
	return nil
}

func (s *Store) AddConnection(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[connectionID] = struct{}{}
	return nil
}

func (s *Store) RemoveConnection(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, connectionID)
	return nil
}

func (s *Store) GetAllConnections(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.connections))
	for id := range s.connections {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

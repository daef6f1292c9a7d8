package models

import (
	"time"
)

// RequestStatus defines the possible states of a wage advance request.
type RequestStatus string

const (
	RequestPending          RequestStatus = "pending"
	RequestPendingSignature RequestStatus = "pending_signature"
	// RequestApproved means the full decider quorum signed and the treasury transfer is in flight.
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// IsActive reports whether a request in this status blocks the employee from opening another one.
func (s RequestStatus) IsActive() bool {
	return s == RequestPending || s == RequestPendingSignature || s == RequestApproved
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestRejected || s == RequestCompleted
}

// UserCategory drives every authorization check.
type UserCategory string

const (
	CategoryEmployee      UserCategory = "employee"
	CategoryDecider       UserCategory = "decider"
	CategoryEntAdmin      UserCategory = "ent_admin"
	CategoryShopAdmin     UserCategory = "shop_admin"
	CategoryCashier       UserCategory = "cashier"
	CategoryPlatformAdmin UserCategory = "platform_admin"
)

// User is a role-tagged identity. AccountId is the ledger account in shard.realm.num form.
type User struct {
	Id           string       `json:"id" dynamodbav:"id"`
	Name         string       `json:"name" dynamodbav:"name"`
	Email        string       `json:"email" dynamodbav:"email"`
	Category     UserCategory `json:"category" dynamodbav:"category"`
	EntrepriseId string       `json:"entreprise_id,omitempty" dynamodbav:"entreprise_id,omitempty"`
	AccountId    string       `json:"account_id,omitempty" dynamodbav:"account_id,omitempty"`
	ShopName     string       `json:"shop_name,omitempty" dynamodbav:"shop_name,omitempty"`
	CreatedAt    time.Time    `json:"created_at" dynamodbav:"created_at"`
}

// Enterprise owns a treasury account and exactly one token.
type Enterprise struct {
	Id                string    `dynamodbav:"id"`
	Name              string    `dynamodbav:"name"`
	TreasuryAccountId string    `dynamodbav:"treasury_account_id"`
	CreatedAt         time.Time `dynamodbav:"created_at"`
}

// EnterpriseToken is the fungible token an enterprise advances wages in.
// The supply key list holds the decider public keys (hex) that must co-sign a scheduled mint.
type EnterpriseToken struct {
	EntrepriseId       string    `dynamodbav:"entreprise_id"`
	TokenId            string    `dynamodbav:"token_id"`
	Name               string    `dynamodbav:"name"`
	Symbol             string    `dynamodbav:"symbol"`
	Decimals           uint32    `dynamodbav:"decimals"`
	TreasuryAccountId  string    `dynamodbav:"treasury_account_id"`
	FeeBasisPoints     int32     `dynamodbav:"fee_basis_points"`
	SupplyKeyThreshold int       `dynamodbav:"supply_key_threshold"`
	SupplyKeyList      []string  `dynamodbav:"supply_key_list"`
	CreatedAt          time.Time `dynamodbav:"created_at"`
}

// DeciderApproval is one entry of a request's signature collection.
type DeciderApproval struct {
	DeciderId string    `json:"decider_id" dynamodbav:"decider_id"`
	Approved  bool      `json:"approved" dynamodbav:"approved"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// WageAdvanceRequest represents the internal domain model for a wage advance.
// DeleteKeyRef points into the custody vault; the key itself is never stored here.
type WageAdvanceRequest struct {
	Id                     string            `dynamodbav:"id"`
	EmployeeId             string            `dynamodbav:"employee_id"`
	EntrepriseId           string            `dynamodbav:"entreprise_id"`
	TokenId                string            `dynamodbav:"token_id"`
	RequestedAmount        int64             `dynamodbav:"requested_amount"`
	Status                 RequestStatus     `dynamodbav:"status"`
	ScheduleId             string            `dynamodbav:"schedule_id,omitempty"`
	ScheduledTransactionId string            `dynamodbav:"scheduled_transaction_id,omitempty"`
	ScheduleExpiresAt      *time.Time        `dynamodbav:"schedule_expires_at,omitempty"`
	DeleteKeyRef           string            `dynamodbav:"delete_key_ref,omitempty"`
	Memo                   string            `dynamodbav:"memo,omitempty"`
	DeciderApprovals       []DeciderApproval `dynamodbav:"decider_approvals"`
	DeciderIds             []string          `dynamodbav:"decider_ids,stringset,omitempty"`
	RejectedBy             string            `dynamodbav:"rejected_by,omitempty"`
	RejectionReason        string            `dynamodbav:"rejection_reason,omitempty"`
	TransferTransactionId  string            `dynamodbav:"transfer_transaction_id,omitempty"`
	Version                int64             `dynamodbav:"version"`
	CreatedAt              time.Time         `dynamodbav:"created_at"`
	UpdatedAt              time.Time         `dynamodbav:"updated_at"`
	CompletedAt            *time.Time        `dynamodbav:"completed_at,omitempty"`
}

// HasVoted reports whether the decider already has an entry in DeciderApprovals.
func (r *WageAdvanceRequest) HasVoted(deciderID string) bool {
	for _, a := range r.DeciderApprovals {
		if a.DeciderId == deciderID {
			return true
		}
	}
	return false
}

// ApprovalCount counts the approving entries.
func (r *WageAdvanceRequest) ApprovalCount() int {
	n := 0
	for _, a := range r.DeciderApprovals {
		if a.Approved {
			n++
		}
	}
	return n
}

// RequestUpdate carries the optional fields written alongside a status transition.
// Zero values are left untouched.
type RequestUpdate struct {
	ScheduleId             string
	ScheduledTransactionId string
	ScheduleExpiresAt      *time.Time
	DeleteKeyRef           string
	Memo                   string
	ResetApprovals         bool
	RejectedBy             string
	RejectionReason        string
	TransferTransactionId  string
	CompletedAt            *time.Time
}

// SealedSecret is key material encrypted to the custody vault's age recipient.
type SealedSecret struct {
	Ref        string    `dynamodbav:"ref"`
	Ciphertext string    `dynamodbav:"ciphertext"`
	PublicKey  string    `dynamodbav:"public_key"`
	CreatedAt  time.Time `dynamodbav:"created_at"`
}

package models

import (
	"fmt"
	"time"
)

// OperationType tags a LedgerOperation and selects which Details variant it carries.
type OperationType string

const (
	OpTokenCreate         OperationType = "TOKEN_CREATE"
	OpSignerEnroll        OperationType = "SIGNER_ENROLL"
	OpWageAdvanceRequest  OperationType = "WAGE_ADVANCE_REQUEST"
	OpScheduleCreate      OperationType = "SCHEDULE_CREATE"
	OpScheduleSign        OperationType = "SCHEDULE_SIGN"
	OpScheduleDelete      OperationType = "SCHEDULE_DELETE"
	OpWageAdvanceTransfer OperationType = "WAGE_ADVANCE_TRANSFER"
	OpShopPaymentAccept   OperationType = "SHOP_PAYMENT_ACCEPT"
	OpBalanceDeduction    OperationType = "BALANCE_DEDUCTION"
	OpTokenAssociate      OperationType = "TOKEN_ASSOCIATE"
)

// OperationTypes lists every known type.
var OperationTypes = []OperationType{
	OpTokenCreate,
	OpSignerEnroll,
	OpWageAdvanceRequest,
	OpScheduleCreate,
	OpScheduleSign,
	OpScheduleDelete,
	OpWageAdvanceTransfer,
	OpShopPaymentAccept,
	OpBalanceDeduction,
	OpTokenAssociate,
}

// IsPollable reports whether the confirmation poller resolves this type against the ledger.
func (t OperationType) IsPollable() bool {
	switch t {
	case OpWageAdvanceTransfer, OpShopPaymentAccept, OpTokenAssociate:
		return true
	}
	return false
}

// IsWalletSigned reports whether the operation waits on a user's wallet signature and can go stale.
func (t OperationType) IsWalletSigned() bool {
	switch t {
	case OpShopPaymentAccept, OpTokenAssociate:
		return true
	}
	return false
}

// OperationStatus is the lifecycle of a ledger-facing action.
type OperationStatus string

const (
	OperationPendingSignature    OperationStatus = "PENDING_SIGNATURE"
	OperationPendingConfirmation OperationStatus = "PENDING_CONFIRMATION"
	OperationSuccess             OperationStatus = "SUCCESS"
	OperationError               OperationStatus = "ERROR"
)

// IsTerminal reports whether the record is frozen.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationSuccess || s == OperationError
}

// LedgerOperation is the append-only audit record of every ledger-facing action.
type LedgerOperation struct {
	Id            string           `dynamodbav:"id"`
	Type          OperationType    `dynamodbav:"type"`
	Status        OperationStatus  `dynamodbav:"status"`
	UserId        string           `dynamodbav:"user_id"`
	EntrepriseId  string           `dynamodbav:"entreprise_id,omitempty"`
	TokenId       string           `dynamodbav:"token_id,omitempty"`
	RequestId     string           `dynamodbav:"request_id,omitempty"`
	TransactionId string           `dynamodbav:"transaction_id,omitempty"`
	Details       OperationDetails `dynamodbav:"details"`
	ErrorMessage  string           `dynamodbav:"error_message,omitempty"`
	ConsensusTime string           `dynamodbav:"consensus_time,omitempty"`
	CreatedAt     time.Time        `dynamodbav:"created_at"`
	CompletedAt   *time.Time       `dynamodbav:"completed_at,omitempty"`
}

// Validate checks that exactly the variant matching Type is populated.
func (op *LedgerOperation) Validate() error {
	variant, n := op.Details.variant()
	if n != 1 {
		return fmt.Errorf("operation %s of type %s carries %d payload variants, want 1", op.Id, op.Type, n)
	}
	if variant != op.Type {
		return fmt.Errorf("operation %s of type %s carries a %s payload", op.Id, op.Type, variant)
	}
	return nil
}

// OperationResult is what the poller or the signature acknowledgement writes onto a pending operation.
type OperationResult struct {
	Status        OperationStatus
	TransactionId string
	ErrorMessage  string
	ConsensusTime string
	CompletedAt   *time.Time
}

// OperationDetails is a closed union; exactly one field is set and it matches the operation type.
type OperationDetails struct {
	TokenCreated     *TokenCreatedDetails     `dynamodbav:"token_created,omitempty"`
	SignerEnrolled   *SignerEnrolledDetails   `dynamodbav:"signer_enrolled,omitempty"`
	AdvanceRequested *AdvanceRequestedDetails `dynamodbav:"advance_requested,omitempty"`
	ScheduleCreated  *ScheduleCreatedDetails  `dynamodbav:"schedule_created,omitempty"`
	ScheduleSigned   *ScheduleSignedDetails   `dynamodbav:"schedule_signed,omitempty"`
	ScheduleDeleted  *ScheduleDeletedDetails  `dynamodbav:"schedule_deleted,omitempty"`
	AdvanceTransfer  *AdvanceTransferDetails  `dynamodbav:"advance_transfer,omitempty"`
	ShopPayment      *ShopPaymentDetails      `dynamodbav:"shop_payment,omitempty"`
	BalanceDeduction *BalanceDeductionDetails `dynamodbav:"balance_deduction,omitempty"`
	TokenAssociation *TokenAssociationDetails `dynamodbav:"token_association,omitempty"`
}

func (d OperationDetails) variant() (OperationType, int) {
	var t OperationType
	n := 0
	set := func(ok bool, typ OperationType) {
		if ok {
			t = typ
			n++
		}
	}
	set(d.TokenCreated != nil, OpTokenCreate)
	set(d.SignerEnrolled != nil, OpSignerEnroll)
	set(d.AdvanceRequested != nil, OpWageAdvanceRequest)
	set(d.ScheduleCreated != nil, OpScheduleCreate)
	set(d.ScheduleSigned != nil, OpScheduleSign)
	set(d.ScheduleDeleted != nil, OpScheduleDelete)
	set(d.AdvanceTransfer != nil, OpWageAdvanceTransfer)
	set(d.ShopPayment != nil, OpShopPaymentAccept)
	set(d.BalanceDeduction != nil, OpBalanceDeduction)
	set(d.TokenAssociation != nil, OpTokenAssociate)
	return t, n
}

type TokenCreatedDetails struct {
	Name               string `dynamodbav:"name"`
	Symbol             string `dynamodbav:"symbol"`
	Decimals           uint32 `dynamodbav:"decimals"`
	SupplyKeyThreshold int    `dynamodbav:"supply_key_threshold"`
}

type SignerEnrolledDetails struct {
	SignerId  string `dynamodbav:"signer_id"`
	PublicKey string `dynamodbav:"public_key"`
}

type AdvanceRequestedDetails struct {
	Amount int64 `dynamodbav:"amount"`
}

type ScheduleCreatedDetails struct {
	ScheduleId string    `dynamodbav:"schedule_id"`
	Amount     int64     `dynamodbav:"amount"`
	Memo       string    `dynamodbav:"memo"`
	ExpiresAt  time.Time `dynamodbav:"expires_at"`
	Deciders   int       `dynamodbav:"deciders"`
}

type ScheduleSignedDetails struct {
	ScheduleId string `dynamodbav:"schedule_id"`
	DeciderId  string `dynamodbav:"decider_id"`
	Approvals  int    `dynamodbav:"approvals"`
	Required   int    `dynamodbav:"required"`
}

type ScheduleDeletedDetails struct {
	ScheduleId string `dynamodbav:"schedule_id"`
	DeciderId  string `dynamodbav:"decider_id"`
	Reason     string `dynamodbav:"reason"`
}

type AdvanceTransferDetails struct {
	FromAccountId string `dynamodbav:"from_account_id"`
	ToAccountId   string `dynamodbav:"to_account_id"`
	Amount        int64  `dynamodbav:"amount"`
}

type ShopPaymentDetails struct {
	EmployeeId        string `dynamodbav:"employee_id"`
	EmployeeAccountId string `dynamodbav:"employee_account_id"`
	ShopUserId        string `dynamodbav:"shop_user_id"`
	ShopAccountId     string `dynamodbav:"shop_account_id"`
	Amount            int64  `dynamodbav:"amount"`
}

type BalanceDeductionDetails struct {
	PaymentOperationId string `dynamodbav:"payment_operation_id"`
	Amount             int64  `dynamodbav:"amount"`
	BalanceAfter       int64  `dynamodbav:"balance_after"`
}

type TokenAssociationDetails struct {
	AccountId string `dynamodbav:"account_id"`
}

package mapping

import (
	"github.com/chris/wage-advance-ledger/pkg/api"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToApiWageAdvance converts a domain request to its API form. The delete key reference stays internal.
func ToApiWageAdvance(req *models.WageAdvanceRequest) *api.WageAdvance {
	approvals := make([]api.DeciderApproval, len(req.DeciderApprovals))
	for i, a := range req.DeciderApprovals {
		approvals[i] = api.DeciderApproval{DeciderId: a.DeciderId, Approved: a.Approved, Timestamp: a.Timestamp}
	}
	return &api.WageAdvance{
		Id:                     req.Id,
		EmployeeId:             req.EmployeeId,
		EntrepriseId:           req.EntrepriseId,
		TokenId:                req.TokenId,
		RequestedAmount:        req.RequestedAmount,
		Status:                 api.WageAdvanceStatus(req.Status),
		ScheduleId:             optional(req.ScheduleId),
		ScheduledTransactionId: optional(req.ScheduledTransactionId),
		ScheduleExpiresAt:      req.ScheduleExpiresAt,
		Memo:                   optional(req.Memo),
		DeciderApprovals:       approvals,
		RejectedBy:             optional(req.RejectedBy),
		RejectionReason:        optional(req.RejectionReason),
		TransferTransactionId:  optional(req.TransferTransactionId),
		CreatedAt:              req.CreatedAt,
		UpdatedAt:              req.UpdatedAt,
		CompletedAt:            req.CompletedAt,
	}
}

func ToApiWageAdvances(requests []models.WageAdvanceRequest) []*api.WageAdvance {
	out := make([]*api.WageAdvance, len(requests))
	for i := range requests {
		out[i] = ToApiWageAdvance(&requests[i])
	}
	return out
}

// ToDomainDecision converts a decision body for the given request.
func ToDomainDecision(requestID string, d *api.Decision) wageadvance.DecideInput {
	in := wageadvance.DecideInput{RequestID: requestID, DeciderID: d.DeciderId, Approved: d.Approved}
	if d.Reason != nil {
		in.Reason = *d.Reason
	}
	return in
}

func ToApiScheduleResult(res *wageadvance.ScheduleResult) *api.ScheduleResult {
	return &api.ScheduleResult{ScheduleId: res.ScheduleID, TransactionId: res.TransactionID}
}

func ToApiBalance(b *balance.Balance) *api.Balance {
	return &api.Balance{
		EmployeeId:        b.EmployeeId,
		LifetimeAdvanced:  b.LifetimeAdvanced,
		PendingAmount:     b.PendingAmount,
		TotalShopPayments: b.TotalShopPayments,
		CurrentBalance:    b.CurrentBalance,
	}
}

func ToApiToken(t *models.EnterpriseToken) *api.Token {
	return &api.Token{
		EntrepriseId:       t.EntrepriseId,
		TokenId:            t.TokenId,
		Name:               t.Name,
		Symbol:             t.Symbol,
		Decimals:           int32(t.Decimals),
		TreasuryAccountId:  t.TreasuryAccountId,
		FeeBasisPoints:     t.FeeBasisPoints,
		SupplyKeyThreshold: t.SupplyKeyThreshold,
		SupplyKeyList:      t.SupplyKeyList,
		CreatedAt:          t.CreatedAt,
	}
}

// ToApiOperation flattens the populated details variant into a JSON object.
func ToApiOperation(op *models.LedgerOperation) *api.Operation {
	return &api.Operation{
		Id:            op.Id,
		Type:          string(op.Type),
		Status:        api.OperationStatus(op.Status),
		UserId:        op.UserId,
		EntrepriseId:  optional(op.EntrepriseId),
		TokenId:       optional(op.TokenId),
		RequestId:     optional(op.RequestId),
		TransactionId: optional(op.TransactionId),
		ErrorMessage:  optional(op.ErrorMessage),
		ConsensusTime: optional(op.ConsensusTime),
		Details:       toApiDetails(op.Details),
		CreatedAt:     op.CreatedAt,
		CompletedAt:   op.CompletedAt,
	}
}

func ToApiOperations(ops []models.LedgerOperation) []*api.Operation {
	out := make([]*api.Operation, len(ops))
	for i := range ops {
		out[i] = ToApiOperation(&ops[i])
	}
	return out
}

func toApiDetails(d models.OperationDetails) map[string]interface{} {
	switch {
	case d.TokenCreated != nil:
		return map[string]interface{}{
			"name": d.TokenCreated.Name, "symbol": d.TokenCreated.Symbol,
			"decimals": d.TokenCreated.Decimals, "supplyKeyThreshold": d.TokenCreated.SupplyKeyThreshold,
		}
	case d.SignerEnrolled != nil:
		return map[string]interface{}{"signerId": d.SignerEnrolled.SignerId, "publicKey": d.SignerEnrolled.PublicKey}
	case d.AdvanceRequested != nil:
		return map[string]interface{}{"amount": d.AdvanceRequested.Amount}
	case d.ScheduleCreated != nil:
		return map[string]interface{}{
			"scheduleId": d.ScheduleCreated.ScheduleId, "amount": d.ScheduleCreated.Amount,
			"memo": d.ScheduleCreated.Memo, "expiresAt": d.ScheduleCreated.ExpiresAt, "deciders": d.ScheduleCreated.Deciders,
		}
	case d.ScheduleSigned != nil:
		return map[string]interface{}{
			"scheduleId": d.ScheduleSigned.ScheduleId, "deciderId": d.ScheduleSigned.DeciderId,
			"approvals": d.ScheduleSigned.Approvals, "required": d.ScheduleSigned.Required,
		}
	case d.ScheduleDeleted != nil:
		return map[string]interface{}{
			"scheduleId": d.ScheduleDeleted.ScheduleId, "deciderId": d.ScheduleDeleted.DeciderId, "reason": d.ScheduleDeleted.Reason,
		}
	case d.AdvanceTransfer != nil:
		return map[string]interface{}{
			"fromAccountId": d.AdvanceTransfer.FromAccountId, "toAccountId": d.AdvanceTransfer.ToAccountId, "amount": d.AdvanceTransfer.Amount,
		}
	case d.ShopPayment != nil:
		return map[string]interface{}{
			"employeeId": d.ShopPayment.EmployeeId, "employeeAccountId": d.ShopPayment.EmployeeAccountId,
			"shopUserId": d.ShopPayment.ShopUserId, "shopAccountId": d.ShopPayment.ShopAccountId, "amount": d.ShopPayment.Amount,
		}
	case d.BalanceDeduction != nil:
		return map[string]interface{}{
			"paymentOperationId": d.BalanceDeduction.PaymentOperationId, "amount": d.BalanceDeduction.Amount,
			"balanceAfter": d.BalanceDeduction.BalanceAfter,
		}
	case d.TokenAssociation != nil:
		return map[string]interface{}{"accountId": d.TokenAssociation.AccountId}
	}
	return map[string]interface{}{}
}

func ToApiStaleExpiryResult(r *reconcile.StaleResult) *api.StaleExpiryResult {
	return &api.StaleExpiryResult{
		Checked:         r.Checked,
		Expired:         r.Expired,
		RequestsExpired: r.RequestsExpired,
		Skipped:         r.Skipped,
		Errors:          r.Errors,
	}
}

func ToApiConfirmationResult(r *reconcile.ConfirmationResult) *api.ConfirmationResult {
	return &api.ConfirmationResult{
		Checked:   r.Checked,
		Confirmed: r.Confirmed,
		Failed:    r.Failed,
		Pending:   r.Pending,
		Skipped:   r.Skipped,
		Errors:    r.Errors,
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/scheduler"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResumer map[string]error

func (f fakeResumer) ResumeTransfer(_ context.Context, job scheduler.TransferJob) (*models.WageAdvanceRequest, error) {
	if err := f[job.RequestID]; err != nil {
		return nil, err
	}
	return &models.WageAdvanceRequest{Id: job.RequestID, Status: models.RequestCompleted}, nil
}

func record(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

func TestHandle(t *testing.T) {
	h := &settlementHandler{
		logger: slog.Default(),
		transfers: fakeResumer{
			"deferred": fmt.Errorf("%w: request deferred", wageadvance.ErrTransferDeferred),
			"unknown":  fmt.Errorf("%w: transaction 0.0.2@1.1", wageadvance.ErrTransferOutcomeUnknown),
			"moved":    &wageadvance.StateError{RequestID: "moved", Required: models.RequestPendingSignature, Actual: models.RequestRejected},
			"ledger":   fmt.Errorf("%w: BUSY", wageadvance.ErrLedger),
			"store":    assert.AnError,
			"gave-up":  fmt.Errorf("%w: scheduled mint not final after 10 deferrals", wageadvance.ErrPreconditionFailed),
		},
	}

	resp, err := h.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record("m1", `{"request_id":"ok","attempt":1}`),
		record("m2", `{"request_id":"deferred","attempt":2}`),
		record("m3", `{"request_id":"unknown","attempt":1}`),
		record("m4", `{"request_id":"moved","attempt":1}`),
		record("m5", `{"request_id":"ledger","attempt":1}`),
		record("m6", `not json`),
		record("m7", `{"request_id":"store","attempt":3}`),
		record("m8", `{"request_id":"gave-up","attempt":10}`),
	}})
	require.NoError(t, err)

	var retried []string
	for _, f := range resp.BatchItemFailures {
		retried = append(retried, f.ItemIdentifier)
	}
	assert.Equal(t, []string{"m5", "m7"}, retried)
}

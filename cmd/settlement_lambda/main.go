package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/wage-advance-ledger/pkg/bootstrap"
	"github.com/chris/wage-advance-ledger/pkg/config"
	"github.com/chris/wage-advance-ledger/pkg/models"
	"github.com/chris/wage-advance-ledger/pkg/scheduler"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
)

type transferResumer interface {
	ResumeTransfer(ctx context.Context, job scheduler.TransferJob) (*models.WageAdvanceRequest, error)
}

type settlementHandler struct {
	transfers transferResumer
	logger    *slog.Logger
}

// Handle resumes each queued transfer. Only failures worth retrying are reported back to SQS.
func (h *settlementHandler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, message := range sqsEvent.Records {
		log := h.logger.With("messageId", message.MessageId)

		job, err := scheduler.ParseTransferJob(message.Body)
		if err != nil {
			// Redelivery cannot fix a malformed body.
			log.Error("dropping malformed transfer job", "error", err)
			continue
		}
		log = log.With("requestId", job.RequestID, "attempt", job.Attempt)

		req, err := h.transfers.ResumeTransfer(ctx, job)
		var stateErr *wageadvance.StateError
		switch {
		case err == nil:
			log.Info("transfer settled", "status", req.Status)
		case errors.Is(err, wageadvance.ErrTransferDeferred):
			log.Info("transfer deferred again")
		case errors.Is(err, wageadvance.ErrTransferOutcomeUnknown):
			log.Warn("transfer outcome unknown, left to the confirmation pass", "error", err)
		case errors.As(err, &stateErr), errors.Is(err, wageadvance.ErrNotFound):
			log.Warn("dropping transfer job", "error", err)
		case errors.Is(err, wageadvance.ErrPreconditionFailed):
			log.Error("transfer needs manual execution", "error", err)
		default:
			log.Error("failed to settle transfer", "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
		}
	}
	return resp, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.LogLevel)

	app, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	h := &settlementHandler{transfers: app.WageAdvances, logger: logger}
	lambda.Start(h.Handle)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/wage-advance-ledger/pkg/bootstrap"
	"github.com/chris/wage-advance-ledger/pkg/config"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
)

type passes interface {
	RunStaleExpiry(ctx context.Context) (*reconcile.StaleResult, error)
	RunConfirmationReconciliation(ctx context.Context) (*reconcile.ConfirmationResult, error)
}

type reconciliationHandler struct {
	poller passes
	logger *slog.Logger
}

// Handle is triggered by an EventBridge schedule. Both passes run even if the first fails.
func (h *reconciliationHandler) Handle(ctx context.Context) error {
	h.logger.Info("starting reconciliation")

	var errs []error
	stale, err := h.poller.RunStaleExpiry(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("stale expiry: %w", err))
	} else {
		h.logger.Info("stale expiry finished",
			"checked", stale.Checked, "expired", stale.Expired, "requestsExpired", stale.RequestsExpired, "skipped", stale.Skipped, "errors", stale.Errors)
	}

	confirmations, err := h.poller.RunConfirmationReconciliation(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("confirmations: %w", err))
	} else {
		h.logger.Info("confirmation reconciliation finished",
			"checked", confirmations.Checked, "confirmed", confirmations.Confirmed, "failed", confirmations.Failed,
			"pending", confirmations.Pending, "skipped", confirmations.Skipped, "errors", confirmations.Errors)
	}

	if err := errors.Join(errs...); err != nil {
		h.logger.Error("reconciliation failed", "error", err)
		return err
	}
	return nil
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

	h := &reconciliationHandler{poller: app.Poller, logger: logger}
	lambda.Start(h.Handle)
}

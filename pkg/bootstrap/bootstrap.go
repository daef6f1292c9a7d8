// Package bootstrap assembles the services every binary runs from a config.Config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/wage-advance-ledger/pkg/balance"
	"github.com/chris/wage-advance-ledger/pkg/config"
	"github.com/chris/wage-advance-ledger/pkg/custody"
	"github.com/chris/wage-advance-ledger/pkg/handlers"
	"github.com/chris/wage-advance-ledger/pkg/ledger"
	"github.com/chris/wage-advance-ledger/pkg/ledger/hedera"
	"github.com/chris/wage-advance-ledger/pkg/ledger/sandbox"
	"github.com/chris/wage-advance-ledger/pkg/metrics"
	"github.com/chris/wage-advance-ledger/pkg/notify"
	"github.com/chris/wage-advance-ledger/pkg/payments"
	"github.com/chris/wage-advance-ledger/pkg/reconcile"
	"github.com/chris/wage-advance-ledger/pkg/scheduler"
	"github.com/chris/wage-advance-ledger/pkg/storage"
	dydbstore "github.com/chris/wage-advance-ledger/pkg/storage/dynamodb"
	"github.com/chris/wage-advance-ledger/pkg/storage/memory"
	"github.com/chris/wage-advance-ledger/pkg/tokens"
	"github.com/chris/wage-advance-ledger/pkg/wageadvance"
	"github.com/chris/wage-advance-ledger/pkg/websockets"
)

// sandboxOperator is the treasury account of the in-process ledger.
const sandboxOperator = "0.0.2"

// App is a fully wired deployment.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        storage.Storage
	Gateway      ledger.Gateway
	Vault        *custody.Vault
	Tokens       *tokens.Service
	WageAdvances *wageadvance.Service
	Balances     *balance.Aggregator
	Payments     *payments.Service
	Poller       *reconcile.Poller
}

type options struct {
	hub     *websockets.Hub
	awsCfg  *aws.Config
	gateway ledger.Gateway
}

type Option func(*options)

// WithHub adds a local websocket hub to the notification fan-out.
func WithHub(hub *websockets.Hub) Option {
	return func(o *options) { o.hub = hub }
}

// WithAWSConfig skips loading the default AWS configuration.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *options) { o.awsCfg = &cfg }
}

// WithGateway replaces the configured ledger backend.
func WithGateway(gw ledger.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

// NewLogger returns the JSON logger every binary writes with and installs it as the default.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// needsAWS reports whether any configured backend talks to AWS.
func needsAWS(cfg *config.Config) bool {
	return cfg.Store == config.StoreDynamoDB ||
		cfg.SettlementQueueURL != "" ||
		cfg.NotificationQueueURL != "" ||
		cfg.WebSocketEndpoint != ""
}

// Build connects the ledger and wires every service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.awsCfg == nil && needsAWS(cfg) {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		o.awsCfg = &awsCfg
	}

	store := newStore(cfg, o.awsCfg)

	gw := o.gateway
	if gw == nil {
		var err error
		if gw, err = newGateway(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	identity := cfg.VaultIdentity
	if identity == "" {
		// Only reachable with the memory store, whose secrets die with the process anyway.
		var err error
		if identity, err = custody.GenerateIdentity(); err != nil {
			return nil, err
		}
		logger.Warn("no vault identity configured, using an ephemeral one")
	}
	vault, err := custody.NewVault(store, gw, identity, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(ctx, cfg, o, store)
	if err != nil {
		return nil, err
	}

	waOpts := []wageadvance.Option{wageadvance.WithLogger(logger)}
	if cfg.SettlementQueueURL != "" {
		waOpts = append(waOpts, wageadvance.WithScheduler(scheduler.NewSQSScheduler(sqs.NewFromConfig(*o.awsCfg), cfg.SettlementQueueURL)))
	}

	balances := balance.NewAggregator(store)
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Gateway:  gw,
		Vault:    vault,
		Tokens:   tokens.NewService(store, gw, vault, logger),
		Balances: balances,
		Payments: payments.NewService(store, balances, logger),
		WageAdvances: wageadvance.New(store, gw, vault, notifier, wageadvance.Config{
			ScheduleExpiry: cfg.ScheduleExpiry,
			Finality: wageadvance.RetryConfig{
				MaxAttempts:  cfg.FinalityAttempts,
				InitialDelay: cfg.FinalityInitialDelay,
				MaxDelay:     cfg.FinalityMaxDelay,
				Multiplier:   2.0,
			},
			TransferRetryDelay: cfg.TransferRetryDelay,
			MaxDeferrals:       cfg.MaxDeferrals,
		}, waOpts...),
		Poller: reconcile.New(store, gw, balances, notifier, cfg.StaleThreshold,
			reconcile.WithLogger(logger),
			reconcile.WithKeyDestroyer(vault),
		),
	}
	return app, nil
}

// NewStore opens only the configured store, for binaries that need nothing else.
func NewStore(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newStore(cfg, &awsCfg), nil
}

func newStore(cfg *config.Config, awsCfg *aws.Config) storage.Storage {
	if cfg.Store == config.StoreMemory {
		return memory.New()
	}
	return dydbstore.New(awsdynamodb.NewFromConfig(*awsCfg), dydbstore.Tables(cfg.Tables))
}

func newGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ledger.Gateway, error) {
	var gw ledger.Gateway
	switch cfg.Ledger {
	case config.LedgerSandbox:
		gw = sandbox.New(sandboxOperator)
	default:
		gw = hedera.New(hedera.Config{
			Network:     cfg.HederaNetwork,
			OperatorID:  cfg.HederaOperatorID,
			OperatorKey: cfg.HederaOperatorKey,
			CallTimeout: cfg.LedgerCallTimeout,
		}, logger)
		if cfg.MirrorNodeURL != "" {
			gw = ledger.WithFinalitySource(gw, ledger.NewMirrorClient(cfg.MirrorNodeURL, cfg.LedgerCallTimeout))
		}
	}
	gw = ledger.Instrument(gw, metrics.RecordLedgerCall)
	if err := gw.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s ledger: %w", cfg.Ledger, err)
	}
	return gw, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, o *options, store storage.Storage) (notify.Notifier, error) {
	var fanout notify.Fanout
	if cfg.NotificationQueueURL != "" {
		fanout = append(fanout, notify.NewSQSNotifier(sqs.NewFromConfig(*o.awsCfg), cfg.NotificationQueueURL))
	}
	if cfg.WebSocketEndpoint != "" {
		publisher, err := websockets.NewPublisherForEndpoint(ctx, store, store, cfg.WebSocketEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create websocket publisher: %w", err)
		}
		fanout = append(fanout, notify.NewWebSocketNotifier(publisher))
	}
	if o.hub != nil {
		fanout = append(fanout, notify.NewWebSocketNotifier(o.hub))
	}
	if len(fanout) == 0 {
		return notify.NoOp{}, nil
	}
	return fanout, nil
}

// Services exposes the app to the HTTP layer.
func (a *App) Services() handlers.Services {
	return handlers.Services{
		WageAdvances: a.WageAdvances,
		Pending:      a.WageAdvances,
		Balances:     a.Balances,
		Tokens:       a.Tokens,
		Payments:     a.Payments,
		Operations:   a.Store,
		Reconciler:   a.Poller,
	}
}

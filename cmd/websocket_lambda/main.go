package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/chris/wage-advance-ledger/pkg/bootstrap"
	"github.com/chris/wage-advance-ledger/pkg/config"
	wshandler "github.com/chris/wage-advance-ledger/pkg/handlers/websockets"
)

// route dispatches on the API Gateway route key.
func route(h *wshandler.Handler) func(context.Context, events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
		switch request.RequestContext.RouteKey {
		case "$connect":
			return h.HandleConnect(ctx, request)
		case "$disconnect":
			return h.HandleDisconnect(ctx, request)
		case "$default":
			return h.HandleDefault(ctx, request)
		}
		slog.Warn("unknown route", "routeKey", request.RequestContext.RouteKey)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.LogLevel)

	// Connections live in the store; no ledger or vault is needed here.
	store, err := bootstrap.NewStore(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	lambda.Start(route(wshandler.NewHandler(store, nil)))
}

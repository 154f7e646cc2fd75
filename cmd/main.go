package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"shop-assistant/handler"
	"shop-assistant/internal/app"
	"shop-assistant/internal/config"
	"shop-assistant/internal/integrations/line"
	"shop-assistant/internal/integrations/paramstore"
	"shop-assistant/internal/repository"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fatal(zap.NewExample(), "invalid configuration", err)
	}
	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		fatal(zap.NewExample(), "failed to build logger", err)
	}
	defer logger.Sync() //nolint:errcheck
	if err := cfg.RequireLambda(); err != nil {
		fatal(logger, "missing configuration", err)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		fatal(logger, "failed to load AWS config", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		fatal(logger, "failed to create SSM client", err)
	}
	creds, err := paramstore.NewChannelCredentials(ssmClient, cfg.ParamPrefix)
	if err != nil {
		fatal(logger, "failed to create channel credentials", err)
	}
	store, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	if err != nil {
		fatal(logger, "failed to create state store", err)
	}

	pipeline, err := app.Build(ctx, cfg, store, logger)
	if err != nil {
		fatal(logger, "failed to build turn pipeline", err)
	}
	defer pipeline.Close() //nolint:errcheck

	verifier, err := line.NewVerifier(creds)
	if err != nil {
		fatal(logger, "failed to create signature verifier", err)
	}
	replier, err := line.NewClient(creds, line.WithLogger(logger.Named("line")))
	if err != nil {
		fatal(logger, "failed to create LINE client", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(pipeline.Turns, replier, verifier, logger.Named("handler"))
	if err != nil {
		fatal(logger, "failed to create handler", err)
	}

	lambda.Start(h.Handle)
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}

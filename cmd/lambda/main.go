package main

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	lambda "github.com/kislerdm/aws-lambda-mysql-check"
	"github.com/kislerdm/aws-lambda-mysql-check/internal/logging"
)

func main() {
	settings, err := lambda.LoadSettings()
	if err != nil {
		log.Fatalf("unable to load settings, %v", err)
	}

	logger, err := logging.NewLogger(settings.Environment, settings.EffectiveLogLevel())
	if err != nil {
		log.Fatalf("unable to init logger, %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if settings.SecretARN == "" {
		logger.Warn(lambda.EnvSecretARN + " env. variable is not set, invocations will fail")
	}

	cfgSecretsManager, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("unable to load SDK config", zap.Error(err))
		return
	}

	if err := lambda.Start(
		lambda.Config{
			SecretARN:            settings.SecretARN,
			SecretsmanagerClient: secretsmanager.NewFromConfig(cfgSecretsManager),
			Connector:            lambda.NewMySQLConnector(settings.ConnectTimeout),
			Logger:               logger,
		},
	); err != nil {
		logger.Error("unable to start lambda", zap.Error(err))
	}
}

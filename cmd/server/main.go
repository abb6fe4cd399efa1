package main

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	lambda "github.com/kislerdm/aws-lambda-mysql-check"
	"github.com/kislerdm/aws-lambda-mysql-check/internal/httpapi"
	"github.com/kislerdm/aws-lambda-mysql-check/internal/logging"
)

func main() {
	settings, err := lambda.LoadSettings()
	if err != nil {
		log.Fatalf("unable to load settings, %v", err)
	}
	if settings.SecretARN == "" {
		log.Fatalln(lambda.EnvSecretARN + " env. variable must be set")
	}

	logger, err := logging.NewLogger(settings.Environment, settings.EffectiveLogLevel())
	if err != nil {
		log.Fatalf("unable to init logger, %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfgSecretsManager, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("unable to load SDK config", zap.Error(err))
		return
	}

	srv, err := httpapi.NewServer(
		settings.HTTPAddr,
		lambda.Config{
			SecretARN:            settings.SecretARN,
			SecretsmanagerClient: secretsmanager.NewFromConfig(cfgSecretsManager),
			Connector:            lambda.NewMySQLConnector(settings.ConnectTimeout),
			Logger:               logger,
		},
		settings.Environment == "production",
	)
	if err != nil {
		logger.Error("unable to init server", zap.Error(err))
		return
	}

	if err := srv.Serve(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	smithyHttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"

	"github.com/kislerdm/aws-lambda-mysql-check/internal/logging"
)

// Config defines the lambda's configuration.
type Config struct {
	// SecretARN the ARN, or the name of the secret with the database access details.
	SecretARN string

	// SecretsmanagerClient the client's instance to communicate with the secretsmanager.
	SecretsmanagerClient SecretsmanagerClient

	// Connector opens the database connection.
	Connector Connector

	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// SecretsmanagerClient client to communicate with the secretsmanager.
type SecretsmanagerClient interface {
	GetSecretValue(
		ctx context.Context, input *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// Handler defines the AWS Lambda function's handler.
// The event is platform-defined and is not inspected.
type Handler func(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error)

// NewHandler initialises lambda handler.
func NewHandler(cfg Config) (Handler, error) {
	if cfg.SecretsmanagerClient == nil {
		return nil, errors.New("configuration for SecretsmanagerClient must be set")
	}
	if cfg.Connector == nil {
		return nil, errors.New("configuration for Connector must be set")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoOpLogger()
	}

	return func(ctx context.Context, _ json.RawMessage) (events.APIGatewayProxyResponse, error) {
		version, err := checkConnection(ctx, cfg)
		if err != nil {
			cfg.Logger.Error(
				"connection check failed",
				zap.String("kind", KindOf(err).String()),
				zap.Error(err),
			)
			return newErrorResponse(err), nil
		}

		cfg.Logger.Info("connection check succeeded", zap.String("mysql_version", version))
		return newSuccessResponse(version, cfg.SecretARN), nil
	}, nil
}

// checkConnection fetches the secret, connects to the database and reads the server version.
func checkConnection(ctx context.Context, cfg Config) (version string, err error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer func() {
		if e := db.Close(); e != nil {
			cfg.Logger.Warn("failed to close database connection", zap.Error(e))
		}
	}()

	cfg.Logger.Debug("query server version")
	return ServerVersion(ctx, db)
}

// Connect resolves the connection descriptor from the secret and opens the database connection.
// The caller must close the returned DB.
func Connect(ctx context.Context, cfg Config) (DB, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNoOpLogger()
	}

	if cfg.SecretARN == "" {
		return nil, newError(ConfigurationError, EnvSecretARN+" env. variable must be set")
	}

	cfg.Logger.Debug("fetch secret", zap.String("arn", cfg.SecretARN))
	v, err := getSecretValue(ctx, cfg.SecretsmanagerClient, cfg.SecretARN)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug("deserialize secret value")
	payload, err := secretPayload(v)
	if err != nil {
		return nil, err
	}
	d, err := ParseConnectionDescriptor(payload)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug(
		"connect to database",
		zap.String("host", d.Host),
		zap.Int("port", int(d.Port)),
		zap.String("dbname", d.DatabaseName),
		zap.String("user", d.Username),
	)
	return cfg.Connector.Open(ctx, d)
}

func getSecretValue(
	ctx context.Context, client SecretsmanagerClient, secretARN string,
) (*secretsmanager.GetSecretValueOutput, error) {
	v, err := client.GetSecretValue(
		ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretARN),
		},
	)
	if err != nil {
		return nil, wrapError(SecretUnavailable, describeSecretError(secretARN, err))
	}
	if v == nil {
		return nil, newError(SecretUnavailable, "secret "+secretARN+" returned no value")
	}
	return v, nil
}

// describeSecretError adds the API error code and the HTTP status to the store's error.
func describeSecretError(secretARN string, err error) error {
	msg := "cannot fetch secret " + secretARN
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg += " (" + apiErr.ErrorCode() + ")"
	}
	var respErr *smithyHttp.ResponseError
	if errors.As(err, &respErr) {
		msg += " [HTTP " + strconv.Itoa(respErr.HTTPStatusCode()) + "]"
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func secretPayload(v *secretsmanager.GetSecretValueOutput) ([]byte, error) {
	switch {
	case v.SecretString != nil:
		return []byte(*v.SecretString), nil
	case len(v.SecretBinary) > 0:
		return v.SecretBinary, nil
	default:
		return nil, newError(MalformedSecret, "secret has no value")
	}
}

// StrToBool converts string to bool.
func StrToBool(s string) bool {
	switch s = strings.ToLower(s); s {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Start proxy to the AWS Lambda runtime.
func Start(cfg Config) error {
	h, err := NewHandler(cfg)
	if err != nil {
		return err
	}
	awslambda.Start(h)
	return nil
}

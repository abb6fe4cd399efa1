package lambda

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// SuccessBody defines the response body of a successful connection check.
type SuccessBody struct {
	Message      string `json:"message"`
	MySQLVersion string `json:"mysql_version"`
	// DBHost the secret reference used to resolve the database.
	DBHost string `json:"db_host"`
	DBInfo bool   `json:"db_info"`
}

// ErrorBody defines the response body of a failed connection check.
type ErrorBody struct {
	Error string `json:"error"`
}

const successMessage = "Successfully connected to MySQL"

func newSuccessResponse(version, secretARN string) events.APIGatewayProxyResponse {
	return newResponse(
		http.StatusOK, SuccessBody{
			Message:      successMessage,
			MySQLVersion: version,
			DBHost:       secretARN,
			DBInfo:       true,
		},
	)
}

func newErrorResponse(err error) events.APIGatewayProxyResponse {
	return newResponse(StatusCode(err), ErrorBody{Error: err.Error()})
}

func newResponse(statusCode int, body any) events.APIGatewayProxyResponse {
	o, err := json.Marshal(body)
	if err != nil {
		statusCode = http.StatusInternalServerError
		o, _ = json.Marshal(ErrorBody{Error: err.Error()})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(o),
	}
}

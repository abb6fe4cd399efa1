package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	lambda "github.com/kislerdm/aws-lambda-mysql-check"
	"github.com/kislerdm/aws-lambda-mysql-check/internal/logging"
)

const (
	usersTable = "users"
	usersLimit = 10
)

type handlers struct {
	cfg    lambda.Config
	logger logging.Logger
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	MySQLVersion int    `json:"mysql_version"`
}

// UsersResponse represents the rows of the users table.
type UsersResponse struct {
	Users []map[string]any `json:"users"`
}

// ErrorResponse represents a failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Health runs the health query against the database.
func (h *handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()

	db, err := lambda.Connect(ctx, h.cfg)
	if err != nil {
		h.fail(c, "Database connection failed: ", err)
		return
	}
	defer h.release(db)

	v, err := lambda.Ping(ctx, db)
	if err != nil {
		h.fail(c, "Database connection failed: ", err)
		return
	}

	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Database: "connected", MySQLVersion: v})
}

// Users lists the first rows of the users table.
func (h *handlers) Users(c *gin.Context) {
	ctx := c.Request.Context()

	db, err := lambda.Connect(ctx, h.cfg)
	if err != nil {
		h.fail(c, "Failed to fetch users: ", err)
		return
	}
	defer h.release(db)

	rows, err := lambda.ListRows(ctx, db, usersTable, usersLimit)
	if err != nil {
		h.fail(c, "Failed to fetch users: ", err)
		return
	}

	c.JSON(http.StatusOK, UsersResponse{Users: rows})
}

func (h *handlers) fail(c *gin.Context, prefix string, err error) {
	h.logger.Error(
		"request failed",
		zap.String("path", c.FullPath()),
		zap.String("kind", lambda.KindOf(err).String()),
		zap.Error(err),
	)
	c.JSON(lambda.StatusCode(err), ErrorResponse{Detail: prefix + err.Error()})
}

func (h *handlers) release(db lambda.DB) {
	if err := db.Close(); err != nil {
		h.logger.Warn("failed to close database connection", zap.Error(err))
	}
}

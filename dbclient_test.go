package lambda

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_dsn(t *testing.T) {
	got, err := mysql.ParseDSN(
		dsn(
			ConnectionDescriptor{
				Host: "db.local", Port: 3307, Username: "bar", Password: "qu@x:x", DatabaseName: "foo",
			}, 2*time.Second,
		),
	)
	require.NoError(t, err)

	assert.Equal(t, "bar", got.User)
	assert.Equal(t, "qu@x:x", got.Passwd)
	assert.Equal(t, "tcp", got.Net)
	assert.Equal(t, "db.local:3307", got.Addr)
	assert.Equal(t, "foo", got.DBName)
	assert.Equal(t, 2*time.Second, got.Timeout)
	assert.Equal(t, 2*time.Second, got.ReadTimeout)
}

func Test_dsn_defaultPort(t *testing.T) {
	got, err := mysql.ParseDSN(
		dsn(ConnectionDescriptor{Host: "db.local", Username: "bar", Password: "quxx", DatabaseName: "foo"}, 0),
	)
	require.NoError(t, err)
	assert.Equal(t, "db.local:3306", got.Addr)
}

func Test_mysqlConnector_Open(t *testing.T) {
	descriptor := ConnectionDescriptor{
		Host: "dev", Port: 3306, Username: "bar", Password: "quxx", DatabaseName: "foo",
	}

	tests := []struct {
		name       string
		openErr    error
		setupMock  func(mock sqlmock.Sqlmock)
		wantErr    bool
		wantErrMsg string
	}{
		{
			name: "happy path",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
			},
		},
		{
			name: "unhappy path: ping failed, handle released",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(errors.New("Error 1045 (28000): Access denied for user 'bar'"))
				mock.ExpectClose()
			},
			wantErr:    true,
			wantErrMsg: "cannot connect to dev: Error 1045",
		},
		{
			name:       "unhappy path: open failed",
			openErr:    errors.New("invalid DSN"),
			wantErr:    true,
			wantErrMsg: "cannot open connection: invalid DSN",
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
				require.NoError(t, err)
				if tt.setupMock != nil {
					tt.setupMock(mock)
				}

				var gotDSN string
				c := mysqlConnector{
					timeout: time.Second,
					open: func(driverName, dataSourceName string) (*sql.DB, error) {
						gotDSN = dataSourceName
						if tt.openErr != nil {
							return nil, tt.openErr
						}
						return db, nil
					},
				}

				got, err := c.Open(context.TODO(), descriptor)
				assert.Equal(t, dsn(descriptor, time.Second), gotDSN)
				if tt.wantErr {
					require.Error(t, err)
					assert.ErrorIs(t, err, ErrConnection)
					assert.Contains(t, err.Error(), tt.wantErrMsg)
					assert.Nil(t, got)
				} else {
					require.NoError(t, err)
					assert.NotNil(t, got)
				}
				assert.NoError(t, mock.ExpectationsWereMet())
			},
		)
	}
}

func Test_mysqlConnector_Open_unreachable(t *testing.T) {
	c := NewMySQLConnector(500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Open(
		ctx, ConnectionDescriptor{
			Host: "127.0.0.1", Port: 1, Username: "bar", Password: "quxx", DatabaseName: "foo",
		},
	)
	require.Error(t, err)
	assert.Equal(t, ConnectionError, KindOf(err))
	assert.Contains(t, err.Error(), "cannot connect to 127.0.0.1")
}

func TestServerVersion(t *testing.T) {
	t.Run(
		"happy path", func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(queryVersion).WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.0.35"))

			got, err := ServerVersion(context.TODO(), db)
			require.NoError(t, err)
			assert.Equal(t, "8.0.35", got)
			assert.NoError(t, mock.ExpectationsWereMet())
		},
	)

	t.Run(
		"unhappy path: no rows", func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(queryVersion).WillReturnRows(sqlmock.NewRows([]string{"version"}))

			_, err := ServerVersion(context.TODO(), db)
			assert.ErrorIs(t, err, ErrQuery)
			assert.ErrorIs(t, err, sql.ErrNoRows)
		},
	)
}

func TestPing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(queryHealth).WillReturnRows(sqlmock.NewRows([]string{"health"}).AddRow(1))

	got, err := Ping(context.TODO(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	mock.ExpectQuery(queryHealth).WillReturnError(errors.New("server has gone away"))
	_, err = Ping(context.TODO(), db)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Contains(t, err.Error(), "server has gone away")
}

func TestListRows(t *testing.T) {
	tests := []struct {
		name       string
		table      string
		limit      int
		setupMock  func(mock sqlmock.Sqlmock)
		want       []map[string]any
		wantErrMsg string
	}{
		{
			name:  "happy path",
			table: "users",
			limit: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM `users` LIMIT 10").WillReturnRows(
					sqlmock.NewRows([]string{"id", "name"}).
						AddRow(int64(1), []byte("alice")).
						AddRow(int64(2), nil),
				)
			},
			want: []map[string]any{
				{"id": int64(1), "name": "alice"},
				{"id": int64(2), "name": nil},
			},
		},
		{
			name:  "happy path: empty table",
			table: "users",
			limit: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM `users` LIMIT 10").WillReturnRows(
					sqlmock.NewRows([]string{"id", "name"}),
				)
			},
			want: []map[string]any{},
		},
		{
			name:       "unhappy path: invalid table name",
			table:      "users; DROP TABLE users",
			limit:      10,
			wantErrMsg: "invalid table name",
		},
		{
			name:       "unhappy path: invalid limit",
			table:      "users",
			limit:      0,
			wantErrMsg: "limit must be positive",
		},
		{
			name:  "unhappy path: table does not exist",
			table: "users",
			limit: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT * FROM `users` LIMIT 10").WillReturnError(
					errors.New("Error 1146 (42S02): Table 'foo.users' doesn't exist"),
				)
			},
			wantErrMsg: "doesn't exist",
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				db, mock := newMockDB(t)
				if tt.setupMock != nil {
					tt.setupMock(mock)
				}

				got, err := ListRows(context.TODO(), db, tt.table, tt.limit)
				if tt.wantErrMsg != "" {
					require.Error(t, err)
					assert.ErrorIs(t, err, ErrQuery)
					assert.Contains(t, err.Error(), tt.wantErrMsg)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.NoError(t, mock.ExpectationsWereMet())
			},
		)
	}
}

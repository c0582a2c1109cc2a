package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/loan-manager/internal/config"
)

func newMockDialector(t *testing.T) (sqlmock.Sqlmock, gorm.Dialector) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return mock, postgres.New(postgres.Config{Conn: sqlDB})
}

func TestOpenWithDialectorSuccess(t *testing.T) {
	mock, dial := newMockDialector(t)
	mock.ExpectPing()

	db, err := OpenWithDialector(dial, config.DatabaseConfig{LogLevel: "silent", MaxOpenConns: 5})
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.True(t, db.Config.TranslateError)
	assert.Equal(t, "UTC", db.Config.NowFunc().Location().String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenWithDialectorPingFails(t *testing.T) {
	mock, dial := newMockDialector(t)
	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	db, err := OpenWithDialector(dial, config.DatabaseConfig{LogLevel: "silent"})
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to ping database")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitializeRejectsUnknownDriver(t *testing.T) {
	_, err := Initialize(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Error, logLevel("ERROR"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

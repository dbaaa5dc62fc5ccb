package database_test

import (
	"context"
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigratesSchema(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: "file:database_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	defer database.Close(db)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Book{}))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "Email"))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "Username"))
	assert.NoError(t, database.Ping(context.Background(), db))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: config.DriverMemory})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"linker/internal/feature/auth/domain/entity"
)

// TestBuildDSN はTCP接続とCloud SQLソケット接続のDSN文字列を検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		expected string
	}{
		{
			name:     "tcp with default sslmode",
			cfg:      Config{User: "u", Password: "p", Name: "linker", Host: "localhost", Port: "5432"},
			expected: "host=localhost user=u password=p dbname=linker sslmode=disable TimeZone=UTC port=5432",
		},
		{
			name:     "explicit sslmode",
			cfg:      Config{User: "u", Password: "p", Name: "linker", Host: "db", Port: "5432", SSLMode: "require"},
			expected: "host=db user=u password=p dbname=linker sslmode=require TimeZone=UTC port=5432",
		},
		{
			name:     "cloud sql takes precedence over host/port",
			cfg:      Config{User: "u", Password: "p", Name: "linker", Host: "localhost", Port: "5432", InstanceName: "project:region:instance"},
			expected: "host=/cloudsql/project:region:instance user=u password=p dbname=linker sslmode=disable TimeZone=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, BuildDSN(tt.cfg))
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 5*time.Second, func(dsn string) (*gorm.DB, error) {
		attempts++
		assert.Equal(t, "test-dsn", dsn)
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 10*time.Second, func(dsn string) (*gorm.DB, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 2, attempts)
}

// TestConnectWithRetry_Timeout はタイムアウト内に次の試行ができない場合に即座に諦めることを検証します。
func TestConnectWithRetry_Timeout(t *testing.T) {
	t.Parallel()

	attempts := 0
	start := time.Now()
	_, err := ConnectWithRetry("test-dsn", 100*time.Millisecond, func(dsn string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), retryInterval)
}

func TestMigrateAndPing(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&entity.User{}))
	assert.True(t, db.Migrator().HasTable("sessions"))
	assert.True(t, db.Migrator().HasColumn(&entity.User{}, "profile_picture_key"))

	assert.NoError(t, Ping(context.Background(), db))
}

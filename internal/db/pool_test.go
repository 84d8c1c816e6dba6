package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBPoolParams_ConnString(t *testing.T) {
	testCases := []struct {
		name     string
		params   NewDBPoolParams
		expected string
	}{
		{
			name:     "no credentials",
			params:   NewDBPoolParams{DBHost: "localhost", DBPort: "5432", DBName: "notebook"},
			expected: "postgres://localhost:5432/notebook",
		},
		{
			name:     "user only",
			params:   NewDBPoolParams{DBHost: "db", DBPort: "5433", DBUser: "postgres", DBName: "notes"},
			expected: "postgres://postgres@db:5433/notes",
		},
		{
			name: "user and password with special chars",
			params: NewDBPoolParams{
				DBHost: "db", DBPort: "5432", DBUser: "notes", DBPassword: "p@ss:w/rd", DBName: "notes",
			},
			expected: "postgres://notes:p%40ss%3Aw%2Frd@db:5432/notes",
		},
		{
			name:     "ipv6 host",
			params:   NewDBPoolParams{DBHost: "::1", DBPort: "5432", DBName: "n"},
			expected: "postgres://[::1]:5432/n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.params.ConnString())
		})
	}
}

func TestNewDBPool_SingleConnection(t *testing.T) {
	// pgxpool connects lazily, so no server is needed to build the pool
	pool, err := NewDBPool(context.Background(), NewDBPoolParams{
		DBHost:   "localhost",
		DBPort:   "1",
		DBUser:   "postgres",
		DBName:   "notebook",
		MaxConns: 1,
	})
	require.NoError(t, err)
	defer pool.Close()

	assert.EqualValues(t, 1, pool.Config().MaxConns)
}

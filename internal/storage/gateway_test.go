package storage

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/notebook/internal/telemetry/metrics"
)

func TestGateway_NotConnected(t *testing.T) {
	g := NewGateway(Params{Host: "localhost", Port: "5432", Database: "notebook"}, metrics.NewTestManager())
	ctx := context.Background()

	rows, err := g.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, rows)

	affected, err := g.Execute(ctx, "DELETE FROM notes")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, affected)

	assert.Nil(t, g.Pool())
	assert.NotPanics(t, g.Shutdown)
	assert.NotPanics(t, g.Shutdown)
}

func TestGateway_InitializeFailsFast(t *testing.T) {
	m := metrics.NewTestManager()
	// nothing listens on port 1
	g := NewGateway(Params{Host: "127.0.0.1", Port: "1", User: "postgres", Database: "notebook"}, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := g.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to 127.0.0.1:1/notebook")
	assert.Nil(t, g.Pool())

	_, err = g.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, testutil.CollectAndCount(m.HistogramStorageDuration))
}

func TestRow_Accessors(t *testing.T) {
	now := time.Now()
	row := Row{int64(7), int32(8), "title", []byte("raw"), nil, now, 3.14}

	id, err := row.Int64(0)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	id, err = row.Int64(1)
	require.NoError(t, err)
	assert.EqualValues(t, 8, id)

	s, err := row.String(2)
	require.NoError(t, err)
	assert.Equal(t, "title", s)

	s, err = row.String(3)
	require.NoError(t, err)
	assert.Equal(t, "raw", s)

	s, err = row.String(4)
	require.NoError(t, err)
	assert.Empty(t, s)

	ts, err := row.Time(5)
	require.NoError(t, err)
	assert.True(t, now.Equal(ts))

	_, err = row.Int64(2)
	assert.EqualError(t, err, "column 2: expected integer, got string")
	_, err = row.String(6)
	assert.EqualError(t, err, "column 6: expected text, got float64")
	_, err = row.Time(0)
	assert.EqualError(t, err, "column 0: expected timestamp, got int64")
	_, err = row.Int64(7)
	assert.EqualError(t, err, "column 7 out of range [0, 7)")
	_, err = row.String(-1)
	assert.Error(t, err)
}

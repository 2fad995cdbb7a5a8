package database

import (
	"context"
	"testing"

	"github.com/01moynul/pixelpulse-golang/internal/config"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverMemory

	s, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, s)
	assert.NoError(t, s.Close(context.Background()))
}

func TestOpenDBWithDSN_BadDSN(t *testing.T) {
	_, err := OpenDBWithDSN(context.Background(), "not a dsn")
	assert.Error(t, err)
}

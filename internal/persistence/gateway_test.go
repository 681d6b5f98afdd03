package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
)

type counters struct {
	LastOrderNumber int `json:"last_order_number"`
}

func TestGatewaysRoundTrip(t *testing.T) {
	t.Parallel()

	fileGW, err := NewFileGateway(t.TempDir())
	require.NoError(t, err)

	cases := []struct {
		name string
		gw   Gateway
	}{
		{name: "memory", gw: NewMemoryGateway()},
		{name: "file", gw: fileGW},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			doc, err := tc.gw.Load(ctx, CollectionCounters)
			require.NoError(t, err)
			assert.Nil(t, doc)

			var c counters
			require.NoError(t, LoadInto(ctx, tc.gw, CollectionCounters, &c))
			assert.Zero(t, c.LastOrderNumber)

			require.NoError(t, SaveFrom(ctx, tc.gw, CollectionCounters, counters{LastOrderNumber: 7}))
			require.NoError(t, LoadInto(ctx, tc.gw, CollectionCounters, &c))
			assert.Equal(t, 7, c.LastOrderNumber)
		})
	}
}

func TestFileGatewayRejectsPathNames(t *testing.T) {
	t.Parallel()

	gw, err := NewFileGateway(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", "../orders", "a/b"} {
		_, err := gw.Load(context.Background(), name)
		assert.Error(t, err, name)
	}
}

func TestFileGatewayTreatsEmptyFileAsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte("  \n"), 0o644))
	gw, err := NewFileGateway(dir)
	require.NoError(t, err)

	doc, err := gw.Load(context.Background(), CollectionOrders)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestLoadIntoReportsCorruptDocument(t *testing.T) {
	t.Parallel()

	gw := NewMemoryGateway()
	require.NoError(t, gw.Save(context.Background(), CollectionOrders, []byte("{not json")))
	var out map[string]any
	err := LoadInto(context.Background(), gw, CollectionOrders, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode orders")
}

func TestLoadIntoNullsNonFiniteLiterals(t *testing.T) {
	t.Parallel()

	gw := NewMemoryGateway()
	doc := `{"A": {"max_uses": Infinity, "note": "Infinity and NaN stay \"quoted\""}, "B": {"max_uses": -Infinity, "ratio": NaN}}`
	require.NoError(t, gw.Save(context.Background(), CollectionDiscounts, []byte(doc)))

	var out map[string]map[string]any
	require.NoError(t, LoadInto(context.Background(), gw, CollectionDiscounts, &out))
	assert.Nil(t, out["A"]["max_uses"])
	assert.Equal(t, `Infinity and NaN stay "quoted"`, out["A"]["note"])
	assert.Contains(t, out["B"], "max_uses")
	assert.Nil(t, out["B"]["max_uses"])
	assert.Nil(t, out["B"]["ratio"])
}

func TestOpenGatewaySelectsBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := zap.NewNop()

	gw, err := OpenGateway(ctx, config.StoreConfig{Backend: config.StoreBackendMemory}, nil, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryGateway{}, gw)

	gw, err = OpenGateway(ctx, config.StoreConfig{Backend: config.StoreBackendFile, DataDir: t.TempDir()}, nil, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileGateway{}, gw)

	_, err = OpenGateway(ctx, config.StoreConfig{Backend: config.StoreBackendPostgres}, &Postgres{}, nil, logger)
	assert.Error(t, err)

	_, err = OpenGateway(ctx, config.StoreConfig{Backend: "mongo"}, nil, nil, logger)
	assert.Error(t, err)
}

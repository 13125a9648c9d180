package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapstreak/geoquiz/internal/engine"
)

func TestRefreshWorkerSwapsSnapshots(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "countries.json", countriesJSON)

	loader := NewLoader(testConfig(dir), nil, nil, discardLogger())
	initial, err := loader.Load(context.Background())
	require.NoError(t, err)

	eng := engine.New(initial, engine.Config{})
	worker := NewRefreshWorker(loader, eng, 10*time.Millisecond, time.Second, discardLogger())

	go worker.Run()
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	assert.NotEqual(t, initial.Version, eng.Dataset().Version, "a refresh must install a new snapshot")
	assert.Equal(t, initial.Catalog.Len(), eng.Dataset().Catalog.Len())
}

func TestRefreshWorkerKeepsServingOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "countries.json", countriesJSON)

	loader := NewLoader(testConfig(dir), nil, nil, discardLogger())
	initial, err := loader.Load(context.Background())
	require.NoError(t, err)

	// A loader over an empty directory fails every refresh.
	broken := NewLoader(testConfig(t.TempDir()), nil, nil, discardLogger())

	eng := engine.New(initial, engine.Config{})
	worker := NewRefreshWorker(broken, eng, 10*time.Millisecond, time.Second, discardLogger())

	go worker.Run()
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	assert.Same(t, initial, eng.Dataset(), "failed refreshes never replace the snapshot")
}

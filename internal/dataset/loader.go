package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/catalog"
	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/geo"
)

// Config names the three documents a snapshot is built from.
type Config struct {
	Dir           string
	CountriesFile string
	BordersFile   string
	RiversFile    string
}

// Loader assembles dataset snapshots. Each document resolves through
// the same priority chain: local file, then payload cache, then the
// remote export (caching what it fetched). The country document is
// mandatory; missing geometry only degrades the quiz to types that do
// not need it.
type Loader struct {
	cfg    Config
	cache  PayloadCache
	client *Client
	logger zerolog.Logger
}

func NewLoader(cfg Config, cache PayloadCache, client *Client, logger zerolog.Logger) *Loader {
	return &Loader{cfg: cfg, cache: cache, client: client, logger: logger}
}

// Load builds a fresh snapshot with a new version.
func (l *Loader) Load(ctx context.Context) (*engine.Dataset, error) {
	countriesRaw, err := l.payload(ctx, l.cfg.CountriesFile)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	var records []catalog.Country
	if err := json.Unmarshal(countriesRaw, &records); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	cat := catalog.New(records, l.logger)
	if cat.Len() == 0 {
		return nil, errors.New("country document holds no usable records")
	}

	borders := l.loadBorders(ctx)
	rivers := l.loadRivers(ctx)

	data := engine.NewDataset(time.Now().UnixNano(), cat, borders, rivers)
	l.logger.Info().
		Int("countries", cat.Len()).
		Int("borders", borders.Len()).
		Int("rivers", rivers.Len()).
		Int64("version", data.Version).
		Msg("dataset snapshot built")
	return data, nil
}

func (l *Loader) loadBorders(ctx context.Context) *geo.Index {
	raw, err := l.payload(ctx, l.cfg.BordersFile)
	if err != nil {
		l.logger.Warn().Err(err).Msg("border document unavailable, map questions disabled")
		return nil
	}
	fc, err := geo.ParseFeatureCollection(raw)
	if err != nil {
		l.logger.Warn().Err(err).Msg("border document malformed, map questions disabled")
		return nil
	}
	return geo.BuildIndex(fc, l.logger)
}

func (l *Loader) loadRivers(ctx context.Context) *geo.RiverIndex {
	raw, err := l.payload(ctx, l.cfg.RiversFile)
	if err != nil {
		l.logger.Warn().Err(err).Msg("river document unavailable, river framing disabled")
		return nil
	}
	fc, err := geo.ParseFeatureCollection(raw)
	if err != nil {
		l.logger.Warn().Err(err).Msg("river document malformed, river framing disabled")
		return nil
	}
	return geo.BuildRiverIndex(fc, l.logger)
}

// payload resolves one document through the file, cache, remote chain.
func (l *Loader) payload(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("document name not configured")
	}

	if l.cfg.Dir != "" {
		path := filepath.Join(l.cfg.Dir, name)
		raw, err := os.ReadFile(path)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn().Err(err).Str("path", path).Msg("local dataset file unreadable")
		}
	}

	if l.cache != nil {
		if raw, err := l.cache.Get(ctx, name); err == nil && raw != nil {
			return raw, nil
		}
	}

	if l.client == nil {
		return nil, fmt.Errorf("document %s: no local file and no remote source", name)
	}
	raw, err := l.client.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		// Best effort: a failed cache write only costs the next restart
		// another fetch.
		_ = l.cache.Set(ctx, name, raw)
	}
	return raw, nil
}

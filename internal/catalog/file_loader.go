package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for snapshot files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based snapshot loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads the snapshot file at path, gzipped or plain.
func (l *fileLoader) Load(ctx context.Context, path string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading catalog snapshot")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalog snapshot")
		return nil, fmt.Errorf("failed to open catalog snapshot %s: %w", path, err)
	}
	defer file.Close()

	snap, err := Decode(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read catalog snapshot")
		return nil, fmt.Errorf("failed to read catalog snapshot %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("equipment", len(snap.Equipment)).
		Int("categories", len(snap.Categories)).
		Int("coupons", len(snap.Coupons)).
		Msg("catalog snapshot loaded successfully")

	return snap, nil
}

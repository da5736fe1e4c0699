package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/nahkd123/stonks-sub001/pkg/market"
)

// FileStore snapshots offers to a single binary record file. IO failure
// is never fatal to the running service: a failed load starts from an
// empty book and a failed save is reported to the caller and logged.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Save writes all offers atomically (temp file + rename).
func (s *FileStore) Save(offers []*market.Offer) error {
	tmp := s.path + ".tmp"

	if err := s.writeSnapshot(tmp, offers); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to write offer snapshot")
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to replace offer snapshot")
		return err
	}

	s.logger.Debug().Int("offers", len(offers)).Str("path", s.path).Msg("Saved offer snapshot")
	return nil
}

func (s *FileStore) writeSnapshot(path string, offers []*market.Offer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := NewWriter(f)
	for _, offer := range offers {
		if err := w.WriteOffer(offer); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode offer %s: %w", offer.ID(), err)
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the snapshot back. A missing or unreadable file yields an
// empty result, logged but not propagated; a partially corrupt file
// yields the records decoded before the corruption.
func (s *FileStore) Load(resolver ProductResolver) []*market.Offer {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info().Str("path", s.path).Msg("No offer snapshot found, starting empty")
		} else {
			s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to open offer snapshot, starting empty")
		}
		return nil
	}
	defer f.Close()

	offers, err := NewReader(f, resolver).ReadAll()
	if err != nil {
		s.logger.Error().Err(err).
			Str("path", s.path).
			Int("recovered", len(offers)).
			Msg("Offer snapshot partially unreadable")
	}

	s.logger.Info().Int("offers", len(offers)).Str("path", s.path).Msg("Loaded offer snapshot")
	return offers
}

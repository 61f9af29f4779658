package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"sjsage522/dealwatcher/logger"
	"sjsage522/dealwatcher/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// FileStore keeps the history as a JSON object in a single file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the history file. A missing or corrupt file is logged and treated as empty.
func (s *FileStore) Load(_ context.Context) (*History, error) {
	log := logger.ForHistory()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to read history, starting empty")
		}
		return New(nil), nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Corrupt history, starting empty")
		return New(nil), nil
	}

	prices := make(map[string]float64, len(raw))
	for link, v := range raw {
		p, ok := toPrice(v)
		if !ok {
			log.Warn().Str("link", link).Interface("value", v).Msg("Skipping unparsable history entry")
			continue
		}
		prices[link] = p
	}

	log.Debug().Str("path", s.path).Int("entries", len(prices)).Msg("History loaded")
	return New(prices), nil
}

// Save writes the history to a temporary file and renames it over the old one
func (s *FileStore) Save(_ context.Context, h *History) error {
	data, err := json.MarshalIndent(h.Snapshot(), "", "  ")
	if err != nil {
		return errors.NewHistory("file", "failed to encode history", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewHistory("file", "failed to create temporary file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewHistory("file", "failed to write history", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewHistory("file", "failed to sync history", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewHistory("file", "failed to close history", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.NewHistory("file", fmt.Sprintf("failed to replace %s", s.path), err)
	}

	logger.ForHistory().Debug().Str("path", s.path).Int("entries", h.Len()).Msg("History saved")
	return nil
}

// toPrice accepts numbers and numeric strings
func toPrice(v interface{}) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Package fixture reads a marketplace snapshot from a YAML or JSON file.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/dashboard"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk marketplace: the catalog plus the profile data behind the dashboard.
type Fixture struct {
	Listings  []domain.Listing     `json:"listings" yaml:"listings"`
	Profiles  []dashboard.Profile  `json:"profiles" yaml:"profiles"`
	Purchases []dashboard.Purchase `json:"purchases" yaml:"purchases"`
}

// ReadFile decodes path as JSON when it ends in .json and as YAML otherwise.
func ReadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &f, nil
}

// Source serves the listings of a fixture file as a snapshot source. The file is
// re-read on every Fetch so that a reload picks up edits.
type Source struct {
	path   string
	logger *logger.Logger
}

func NewSource(path string, log *logger.Logger) *Source {
	return &Source{path: path, logger: log.Named("FixtureSource")}
}

func (s *Source) Name() string {
	return "fixture"
}

func (s *Source) Fetch(ctx context.Context) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := ReadFile(s.path)
	if err != nil {
		s.logger.Error("Failed to read fixture", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotSource, err)
	}
	s.logger.Debug("Fixture read", zap.String("path", s.path), zap.Int("listings", len(f.Listings)))
	return f.Listings, nil
}

// Package fillconfig stores the demo server's fill configs behind a
// layered lookup: submissions land in memory and, when a repository is
// attached, in SQLite; lookups fall back to the repository and then to a
// YAML directory of prebaked configs.
package fillconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/basset-hound/automation/internal/logger"
	"github.com/basset-hound/automation/internal/model"
	"github.com/basset-hound/automation/internal/repository"
)

var log = logger.Get()

// DefaultYAMLDir is where prebaked per-origin configs live.
const DefaultYAMLDir = "configs"

// Store is the layered fill-config store.
type Store struct {
	repo    *repository.ConfigRepository
	yamlDir string

	mu     sync.RWMutex
	memory map[string]*model.FillConfig
}

// Option configures a Store.
type Option func(*Store)

// WithRepository attaches a SQLite repository as the persistence tier.
func WithRepository(repo *repository.ConfigRepository) Option {
	return func(s *Store) { s.repo = repo }
}

// WithYAMLDir overrides the prebaked config directory.
func WithYAMLDir(dir string) Option {
	return func(s *Store) { s.yamlDir = dir }
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		yamlDir: DefaultYAMLDir,
		memory:  make(map[string]*model.FillConfig),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores config under its origin. The in-memory tier is authoritative;
// a repository write failure is logged and the submission still succeeds.
func (s *Store) Put(ctx context.Context, config *model.FillConfig) {
	now := time.Now()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	s.mu.Lock()
	s.memory[config.Origin] = config
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, config); err != nil {
			log.WithError(err).WithField("origin", config.Origin).Warn("failed to persist config")
		}
	}
	log.WithField("origin", config.Origin).Info("config stored")
}

// Get looks origin up through the tiers: memory, repository, YAML file.
// Returns model.ErrConfigNotFound when no tier has it.
func (s *Store) Get(ctx context.Context, origin string) (*model.FillConfig, error) {
	if origin == "" {
		return nil, model.ErrConfigNotFound
	}

	s.mu.RLock()
	config, ok := s.memory[origin]
	s.mu.RUnlock()
	if ok {
		return config, nil
	}

	if s.repo != nil {
		config, err := s.repo.GetByOrigin(ctx, origin)
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, model.ErrConfigNotFound) {
			return nil, err
		}
	}

	return s.loadYAML(origin)
}

// loadYAML reads the prebaked config file for origin. Origins that could
// escape the config directory are treated as misses.
func (s *Store) loadYAML(origin string) (*model.FillConfig, error) {
	if strings.ContainsAny(origin, `/\`) {
		return nil, model.ErrConfigNotFound
	}

	path := filepath.Join(s.yamlDir, origin+".yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, model.ErrConfigNotFound
	}
	if err != nil {
		return nil, oops.Wrapf(err, "read config file %s", path)
	}

	config := &model.FillConfig{Origin: origin}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, oops.Wrapf(err, "parse config file %s", path)
	}
	log.WithField("origin", origin).Debug("config loaded from yaml")
	return config, nil
}

package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const fileExtension = ".yml"

// Store loads and saves scenarios as YAML files in one directory.
type Store struct {
	dir       string
	validator *Validator
	logger    *zap.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scenario directory %s: %w", dir, err)
	}
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, validator: validator, logger: logger}, nil
}

// Load reads, validates and decodes a scenario file. The ".yml" extension is
// appended when missing.
func (s *Store) Load(name string) (*Scenario, error) {
	fileName := name
	if !strings.HasSuffix(fileName, fileExtension) {
		fileName += fileExtension
	}
	path := filepath.Join(s.dir, fileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	if err := s.validator.ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", fileName, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", fileName, err)
	}

	sc, err := fromDocument(doc, strings.TrimSuffix(fileName, fileExtension))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", fileName, err)
	}

	s.logger.Info("Scenario loaded",
		zap.String("name", sc.Name),
		zap.Int("devices", len(sc.Devices)))
	return sc, nil
}

// Save writes the scenario to disk. When name is empty the scenario's own
// name is used.
func (s *Store) Save(sc *Scenario, name string) error {
	if name == "" {
		name = sc.Name
	}
	path := filepath.Join(s.dir, name+fileExtension)

	data, err := yaml.Marshal(sc.toDocument())
	if err != nil {
		return fmt.Errorf("encode scenario %q: %w", sc.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scenario %s: %w", path, err)
	}

	s.logger.Info("Scenario saved",
		zap.String("name", sc.Name),
		zap.String("path", path))
	return nil
}

// List returns the names of all scenario files in the store directory.
func (s *Store) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+fileExtension))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(match), fileExtension))
	}
	return names, nil
}

// Create returns a new empty scenario. Nothing is written until Save.
func (s *Store) Create(name, description string) *Scenario {
	return New(name, description)
}

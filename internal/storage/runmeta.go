package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

//go:embed run_meta.schema.json
var runMetaSchemaJSON []byte

const runMetaSchemaURL = "run_meta.schema.json"

var (
	runMetaSchemaOnce sync.Once
	runMetaSchema     *jsonschema.Schema
	runMetaSchemaErr  error
)

func compiledRunMetaSchema() (*jsonschema.Schema, error) {
	runMetaSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(runMetaSchemaURL, bytes.NewReader(runMetaSchemaJSON)); err != nil {
			runMetaSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		runMetaSchema, runMetaSchemaErr = compiler.Compile(runMetaSchemaURL)
	})
	return runMetaSchema, runMetaSchemaErr
}

// ValidateRunMeta checks an encoded run metadata document against the schema
func ValidateRunMeta(data []byte) error {
	schema, err := compiledRunMetaSchema()
	if err != nil {
		return errors.NewAppError(errors.ErrTypeValidation, "run metadata schema does not compile", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.NewParsingError("run metadata is not valid JSON", err)
	}
	if err := schema.Validate(v); err != nil {
		return errors.NewAppError(errors.ErrTypeValidation, "run metadata does not match schema", err)
	}
	return nil
}

// RunMetaStore reads and writes the run metadata document
type RunMetaStore struct {
	path string
}

// NewRunMetaStore creates a store for the document at path
func NewRunMetaStore(path string) *RunMetaStore {
	return &RunMetaStore{path: path}
}

// Path returns the document location
func (s *RunMetaStore) Path() string {
	return s.path
}

// Load reads and validates the document. A missing document is NOT_FOUND.
func (s *RunMetaStore) Load() (*domain.RunMeta, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(s.path)
		}
		return nil, errors.NewStorageError("failed to read "+s.path, err)
	}
	if err := ValidateRunMeta(data); err != nil {
		return nil, err
	}

	var meta domain.RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.NewParsingError("failed to decode "+s.path, err)
	}
	return &meta, nil
}

// Save validates meta and replaces the document atomically
func (s *RunMetaStore) Save(meta *domain.RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode run metadata", err)
	}
	if err := ValidateRunMeta(data); err != nil {
		return err
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// Update loads the document, applies fn and saves it
func (s *RunMetaStore) Update(fn func(meta *domain.RunMeta)) (*domain.RunMeta, error) {
	meta, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(meta)
	if err := s.Save(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewStorageError("failed to write "+tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError("failed to move "+tmp+" into place", err)
	}
	return nil
}

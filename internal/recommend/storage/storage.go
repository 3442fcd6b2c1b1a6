// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const modelExtension = ".gob.gz"

// ModelMetadata describes one stored model version.
type ModelMetadata struct {
	// Name is the model name, e.g. "latent".
	Name string `json:"name"`

	// Version is the engine model version at save time, monotonically
	// increasing across rebuilds.
	Version int `json:"version"`

	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// Rank, UserCount, and ItemCount describe the model's shape.
	Rank      int `json:"rank"`
	UserCount int `json:"user_count"`
	ItemCount int `json:"item_count"`

	// Checksum is the SHA-256 of the uncompressed model payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk layout of one model file.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages model files under one directory.
type Store struct {
	baseDir string

	mu       sync.RWMutex
	versions map[string]int // latest version per model name
}

// NewStore opens a model store at baseDir, creating it when missing and
// indexing any model files already present.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("empty model storage directory")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create model storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan model storage: %w", err)
	}
	return s, nil
}

// scan indexes the latest version per model name from the directory.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		if current, seen := s.versions[name]; !seen || version > current {
			s.versions[name] = version
		}
	}
	return nil
}

// parseModelFilename splits "latent_v4.gob.gz" into ("latent", 4).
func parseModelFilename(filename string) (name string, version int, ok bool) {
	base, found := strings.CutSuffix(filename, modelExtension)
	if !found {
		return "", 0, false
	}
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:idx], version, true
}

func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, modelExtension))
}

// Save persists a model state under the given name and version. The
// caller supplies shape metadata; checksum, size, and timestamps are
// filled in here.
func (s *Store) Save(ctx context.Context, name string, version int, state interface{}, meta ModelMetadata) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid model name %q", name)
	}
	if version < 1 {
		return fmt.Errorf("model version must be positive, got %d", version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(state); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	raw := payload.Bytes()
	checksum := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.SavedAt = time.Now()
	meta.Checksum = hex.EncodeToString(checksum[:])
	meta.SizeBytes = int64(compressed.Len())

	f, err := os.Create(s.modelPath(name, version)) //nolint:gosec // path is built from a validated name
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewEncoder(f).Encode(storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}
	return nil
}

// Load reads a stored model into target. Version 0 loads the latest.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		latest, ok := s.versions[name]
		if !ok {
			return nil, fmt.Errorf("no stored model named %q", name)
		}
		version = latest
	}

	f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is built from a validated name
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }()

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read model payload: %w", err)
	}

	checksum := sha256.Sum256(raw)
	if got := hex.EncodeToString(checksum[:]); got != sf.Metadata.Checksum {
		return nil, fmt.Errorf("model checksum mismatch for %s v%d: stored %s, computed %s",
			name, version, sf.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &sf.Metadata, nil
}

// GetLatestVersion returns the newest stored version for a model name.
func (s *Store) GetLatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[name]
	return version, ok
}

// ListModels returns the metadata of the latest version of every stored
// model.
func (s *Store) ListModels(ctx context.Context) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]ModelMetadata, 0, len(s.versions))
	for name, version := range s.versions {
		f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is built from indexed names
		if err != nil {
			continue
		}
		var sf storedFile
		err = gob.NewDecoder(f).Decode(&sf)
		_ = f.Close()
		if err != nil {
			continue
		}
		models = append(models, sf.Metadata)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Delete removes one stored model version and reindexes the latest.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}

	if s.versions[name] != version {
		return nil
	}
	remaining, err := s.diskVersionsLocked(name)
	if err != nil {
		return fmt.Errorf("reindex model versions: %w", err)
	}
	if len(remaining) == 0 {
		delete(s.versions, name)
		return nil
	}
	s.versions[name] = remaining[0]
	return nil
}

// Prune keeps the newest keep versions of a model and removes the rest.
func (s *Store) Prune(ctx context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	if _, ok := s.versions[name]; !ok {
		return nil
	}

	versions, err := s.diskVersionsLocked(name)
	if err != nil {
		return fmt.Errorf("list model versions: %w", err)
	}
	for _, version := range versions[min(keep, len(versions)):] {
		// Best effort: a file that cannot be removed now gets another
		// chance on the next prune.
		_ = os.Remove(s.modelPath(name, version))
	}
	return nil
}

// diskVersionsLocked lists a model's on-disk versions, newest first.
// Caller holds mu.
func (s *Store) diskVersionsLocked(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryName, version, ok := parseModelFilename(entry.Name())
		if !ok || entryName != name {
			continue
		}
		versions = append(versions, version)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

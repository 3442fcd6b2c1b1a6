// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

func testState(version int) *algorithms.LatentState {
	return &algorithms.LatentState{
		Rank:        2,
		UserIDs:     []string{"user-a", "user-b"},
		ItemIDs:     []string{"item-a", "item-b", "item-c"},
		UserFactors: [][]float64{{0.5, 0.1}, {0.2, 0.9}},
		ItemFactors: [][]float64{{1, 0}, {0.3, 0.4}, {0, 1}},
		Version:     version,
		TrainedAt:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dir     func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates missing directory",
			dir: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "models")
			},
		},
		{
			name: "uses existing directory",
			dir:  func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:    "empty directory path",
			dir:     func(t *testing.T) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(tt.dir(t))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s == nil {
				t.Error("NewStore() returned nil store without error")
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	state := testState(1)
	meta := ModelMetadata{
		TrainedAt: state.TrainedAt,
		Rank:      state.Rank,
		UserCount: 2,
		ItemCount: 3,
	}
	if err := s.Save(ctx, "latent", 1, state, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded algorithms.LatentState
	loadedMeta, err := s.Load(ctx, "latent", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedMeta.Name != "latent" || loadedMeta.Version != 1 {
		t.Errorf("metadata = %s v%d, want latent v1", loadedMeta.Name, loadedMeta.Version)
	}
	if loadedMeta.Rank != 2 || loadedMeta.UserCount != 2 || loadedMeta.ItemCount != 3 {
		t.Errorf("shape metadata = rank %d, %d users, %d items, want 2/2/3",
			loadedMeta.Rank, loadedMeta.UserCount, loadedMeta.ItemCount)
	}
	if loadedMeta.Checksum == "" {
		t.Error("Checksum was not filled in")
	}
	if loadedMeta.SizeBytes == 0 {
		t.Error("SizeBytes was not filled in")
	}
	if loadedMeta.SavedAt.IsZero() {
		t.Error("SavedAt was not filled in")
	}

	if !reflect.DeepEqual(&loaded, state) {
		t.Errorf("loaded state differs from saved state:\ngot  %+v\nwant %+v", loaded, *state)
	}
}

func TestStore_SaveValidation(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		modelName string
		version   int
	}{
		{name: "empty name", modelName: "", version: 1},
		{name: "path separator in name", modelName: "../escape", version: 1},
		{name: "zero version", modelName: "latent", version: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Save(ctx, tt.modelName, tt.version, testState(1), ModelMetadata{}); err == nil {
				t.Error("Save() accepted invalid input")
			}
		})
	}
}

func TestStore_LoadLatestVersion(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := s.Save(ctx, "latent", v, testState(v), ModelMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	var loaded algorithms.LatentState
	meta, err := s.Load(ctx, "latent", 0, &loaded)
	if err != nil {
		t.Fatalf("Load(latest) error = %v", err)
	}
	if meta.Version != 3 || loaded.Version != 3 {
		t.Errorf("latest = meta v%d, state v%d, want 3 and 3", meta.Version, loaded.Version)
	}

	if _, err := s.Load(ctx, "unknown", 0, &loaded); err == nil {
		t.Error("Load() of an unknown model succeeded")
	}
}

func TestStore_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	if err := first.Save(ctx, "latent", 1, testState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := first.Save(ctx, "latent", 2, testState(2), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A fresh store over the same directory indexes existing files.
	second, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() over existing directory error = %v", err)
	}
	version, ok := second.GetLatestVersion("latent")
	if !ok || version != 2 {
		t.Errorf("GetLatestVersion() = %d, %v, want 2, true", version, ok)
	}
}

func TestStore_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	if err := s.Save(ctx, "latent", 1, testState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Corrupt the stored checksum and rewrite the file.
	path := filepath.Join(dir, "latent_v1"+modelExtension)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open model file: %v", err)
	}
	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		t.Fatalf("decode model file: %v", err)
	}
	_ = f.Close()

	sf.Metadata.Checksum = "0000"
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("rewrite model file: %v", err)
	}
	if err := gob.NewEncoder(out).Encode(sf); err != nil {
		t.Fatalf("encode corrupted file: %v", err)
	}
	_ = out.Close()

	var loaded algorithms.LatentState
	if _, err := s.Load(ctx, "latent", 1, &loaded); err == nil {
		t.Error("Load() accepted a corrupted snapshot")
	}
}

func TestStore_Delete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	for v := 1; v <= 2; v++ {
		if err := s.Save(ctx, "latent", v, testState(v), ModelMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	// Deleting the latest reindexes to the survivor.
	if err := s.Delete(ctx, "latent", 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if version, ok := s.GetLatestVersion("latent"); !ok || version != 1 {
		t.Errorf("GetLatestVersion() after delete = %d, %v, want 1, true", version, ok)
	}

	if err := s.Delete(ctx, "latent", 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := s.GetLatestVersion("latent"); ok {
		t.Error("model still indexed after deleting every version")
	}

	if err := s.Delete(ctx, "latent", 9); err == nil {
		t.Error("Delete() of a missing version succeeded")
	}
}

func TestStore_Prune(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	for v := 1; v <= 5; v++ {
		if err := s.Save(ctx, "latent", v, testState(v), ModelMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}

	if err := s.Prune(ctx, "latent", 2); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read storage dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"latent_v4.gob.gz", "latent_v5.gob.gz"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("files after prune = %v, want %v", names, want)
	}

	// Pruning an unknown model is a no-op.
	if err := s.Prune(ctx, "unknown", 2); err != nil {
		t.Errorf("Prune(unknown) error = %v", err)
	}
}

func TestStore_ListModels(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	models, err := s.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 0 {
		t.Errorf("ListModels() on empty store = %v, want none", models)
	}

	if err := s.Save(ctx, "latent", 1, testState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, "latent", 2, testState(2), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	models, err = s.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("ListModels() returned %d entries, want latest-only per name", len(models))
	}
	if models[0].Name != "latent" || models[0].Version != 2 {
		t.Errorf("ListModels()[0] = %s v%d, want latent v2", models[0].Name, models[0].Version)
	}
}

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantName    string
		wantVersion int
		wantOK      bool
	}{
		{"latent_v1.gob.gz", "latent", 1, true},
		{"latent_v42.gob.gz", "latent", 42, true},
		{"two_part_name_v7.gob.gz", "two_part_name", 7, true},
		{"latent_v1.gob", "", 0, false},
		{"latent.gob.gz", "", 0, false},
		{"_v3.gob.gz", "", 0, false},
		{"latent_vX.gob.gz", "", 0, false},
		{"latent_v0.gob.gz", "", 0, false},
		{"README.md", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, version, ok := parseModelFilename(tt.filename)
			if name != tt.wantName || version != tt.wantVersion || ok != tt.wantOK {
				t.Errorf("parseModelFilename(%q) = %q, %d, %v, want %q, %d, %v",
					tt.filename, name, version, ok, tt.wantName, tt.wantVersion, tt.wantOK)
			}
		})
	}
}

func TestStore_LatentRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	// Nothing saved yet: nil state, no error.
	state, err := s.LoadLatestLatent()
	if err != nil {
		t.Fatalf("LoadLatestLatent() on empty store error = %v", err)
	}
	if state != nil {
		t.Errorf("LoadLatestLatent() on empty store = %+v, want nil", state)
	}

	saved := testState(3)
	if err := s.SaveLatent(saved); err != nil {
		t.Fatalf("SaveLatent() error = %v", err)
	}

	state, err = s.LoadLatestLatent()
	if err != nil {
		t.Fatalf("LoadLatestLatent() error = %v", err)
	}
	if !reflect.DeepEqual(state, saved) {
		t.Errorf("round-tripped state differs:\ngot  %+v\nwant %+v", state, saved)
	}

	if err := s.SaveLatent(nil); err == nil {
		t.Error("SaveLatent(nil) succeeded")
	}
}

// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package storage persists trained recommendation models across restarts.
//
// A freshly started process has no latent model until the first retrain
// finishes, which on a large interaction log can take a while. Restoring
// the last persisted snapshot closes that gap: the engine serves latent
// recommendations immediately and the next scheduled retrain replaces
// them.
//
// # Storage Format
//
// Models are gob-encoded, gzip-compressed, and written one file per
// version:
//
//	filename: {model_name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata)
//	  - CompressedData (gzip-compressed gob-encoded model state)
//
// The SHA-256 checksum of the uncompressed payload is stored in the
// metadata and verified on every load, so a corrupted snapshot fails
// loudly instead of serving wrong rankings.
//
// # Version Management
//
// The store tracks the latest version per model name, discovered by
// scanning the directory at startup:
//
//	/data/models/
//	  latent_v3.gob.gz
//	  latent_v4.gob.gz     <- latest
//
// Version 0 on Load means "latest". Prune keeps the newest N versions
// and removes the rest.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Saves take the write lock;
// loads run concurrently under the read lock.
package storage

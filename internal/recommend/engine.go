// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
	"github.com/tomtom215/palate/internal/store"
)

// maxCacheEntries bounds the response cache before expired entries are
// swept.
const maxCacheEntries = 1024

// ErrTrainingInProgress is returned by Rebuild while another rebuild
// holds the training lock. The active snapshot keeps serving; callers
// should retry later.
var ErrTrainingInProgress = errors.New("training already in progress")

// Stores bundles the persistence collaborators the engine reads from.
// The engine never writes through them; ingestion happens elsewhere.
type Stores struct {
	Catalog  store.Catalog
	Log      store.InteractionLog
	Ratings  store.RatingStore
	Profiles store.ProfileStore
}

func (s *Stores) validate() error {
	if s.Catalog == nil {
		return fmt.Errorf("nil catalog store")
	}
	if s.Log == nil {
		return fmt.Errorf("nil interaction log")
	}
	if s.Ratings == nil {
		return fmt.Errorf("nil rating store")
	}
	if s.Profiles == nil {
		return fmt.Errorf("nil profile store")
	}
	return nil
}

// SnapshotStore persists trained model state across restarts. Optional:
// an engine without one simply retrains from the log.
type SnapshotStore interface {
	SaveLatent(state *algorithms.LatentState) error

	// LoadLatestLatent returns the most recent snapshot, or nil when none
	// has ever been saved.
	LoadLatestLatent() (*algorithms.LatentState, error)
}

// Engine is the recommendation orchestrator. Requests are read-only
// passes over a latent model snapshot plus fresh store reads; Rebuild is
// the only mutating operation and swaps the snapshot pointer atomically,
// so in-flight requests always see either the old or the new model,
// never a partial one.
type Engine struct {
	config *config.RecommendConfig
	logger zerolog.Logger
	stores Stores

	content *algorithms.ContentScorer
	latent  atomic.Pointer[algorithms.LatentFactors]

	snapshots SnapshotStore

	trainMu      sync.Mutex
	modelVersion atomic.Int32

	requestCount atomic.Int64
	errorCount   atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewEngine creates a recommendation engine. The latent model starts
// absent; call Rebuild or RestoreSnapshot to make it available.
func NewEngine(cfg *config.RecommendConfig, logger zerolog.Logger, stores Stores) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil recommend config")
	}
	if err := stores.validate(); err != nil {
		return nil, fmt.Errorf("invalid stores: %w", err)
	}

	return &Engine{
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		stores:  stores,
		content: algorithms.NewContentScorer(algorithms.ContentConfig{}),
		cache:   make(map[string]cacheEntry),
	}, nil
}

// SetSnapshotStore wires model snapshot persistence. Must be called
// before the engine starts serving.
func (e *Engine) SetSnapshotStore(s SnapshotStore) {
	e.snapshots = s
}

// latentConfig maps engine settings onto the latent model's knobs.
func (e *Engine) latentConfig() algorithms.LatentConfig {
	return algorithms.LatentConfig{
		MaxRank:        e.config.MaxRank,
		MinViableRank:  e.config.MinViableRank,
		NumIterations:  e.config.Iterations,
		Regularization: e.config.Regularization,
		Alpha:          e.config.Alpha,
		NumWorkers:     e.config.NumWorkers,
	}
}

// requestContext is everything one request pulls from the stores before
// ranking starts. Loaded once per request; never mutated afterwards.
type requestContext struct {
	profile   *models.UserProfile
	disliked  map[string]struct{}
	history   []models.Interaction
	items     []models.MenuItem
	itemsByID map[string]models.MenuItem
	effective algorithms.EffectiveConstraints
	taste     algorithms.TasteHistory
}

// Recommend produces the reorder and new-item lists for one interpreted
// request. Every fallback (no model, no history, no profile) is handled
// internally; the only errors are store failures and cancellation.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.requestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if resp := e.tryGetCachedResponse(req, start, logger); resp != nil {
		recordServed(req, resp, start)
		return resp, nil
	}

	rc, err := e.loadRequestContext(ctx, req)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	reorder := e.reorderItems(req, rc)
	pool := e.newItemPool(req, rc, reorder)
	newItems, latentUsed := e.rankNewItems(ctx, req, rc, pool)

	resp := e.buildResponse(req, rc, reorder, newItems, latentUsed, len(pool), start)
	e.cacheResponse(req, resp)
	recordServed(req, resp, start)

	logger.Debug().
		Int("pool", len(pool)).
		Int("reorder_items", len(reorder)).
		Int("new_items", len(newItems)).
		Bool("latent_used", latentUsed).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies limit defaults and generates a request ID.
// An unset intent defaults to the generic food-recommendation intent so
// programmatic callers get the full response shape.
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Intent == "" {
		req.Intent = interpret.IntentFoodRecommendation
	}
	if req.Limit <= 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}
	if req.ReorderLimit <= 0 {
		req.ReorderLimit = e.config.ReorderLimit
	}
	if req.ReorderLimit <= 0 {
		req.ReorderLimit = 3
	}
	return req
}

func (e *Engine) requestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Str("intent", req.Intent.String()).
		Logger()
}

// loadRequestContext pulls the per-request snapshot of profile, ratings,
// history, and catalog. A missing profile is data absence, not an error.
func (e *Engine) loadRequestContext(ctx context.Context, req Request) (*requestContext, error) {
	profile, err := e.stores.Profiles.Profile(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		def := models.DefaultProfile(req.UserID)
		profile = &def
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	lowRatings, err := e.stores.Ratings.RatingsBelow(ctx, req.UserID, store.DislikeThreshold)
	if err != nil {
		return nil, fmt.Errorf("load low ratings: %w", err)
	}

	history, err := e.stores.Log.HistoryForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	items, err := e.stores.Catalog.FindAvailableItems(ctx, store.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	itemsByID := make(map[string]models.MenuItem, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	rc := &requestContext{
		profile:   profile,
		disliked:  DislikedSetFrom(lowRatings),
		history:   history,
		items:     items,
		itemsByID: itemsByID,
		effective: EffectiveConstraintsFor(profile, req.Override),
	}
	rc.taste = algorithms.BuildTasteHistory(history, itemsByID)
	return rc, nil
}

// reorderItems ranks the user's historical items by summed quantity,
// descending, item ID ascending on ties, keeping only admissible items.
// Only reorder-eligible intents produce a list.
func (e *Engine) reorderItems(req Request, rc *requestContext) []RecommendedItem {
	if !req.Intent.ReorderEligible() || len(rc.history) == 0 {
		return nil
	}

	totals := make(map[string]int, len(rc.history))
	for _, in := range rc.history {
		if in.Quantity > 0 {
			totals[in.ItemID] += in.Quantity
		}
	}

	ranked := make([]algorithms.Scored, 0, len(totals))
	for itemID, quantity := range totals {
		ranked = append(ranked, algorithms.Scored{ItemID: itemID, Score: float64(quantity)})
	}
	algorithms.SortScoredDescending(ranked)

	reorder := make([]RecommendedItem, 0, req.ReorderLimit)
	for _, s := range ranked {
		if len(reorder) >= req.ReorderLimit {
			break
		}
		item, ok := rc.itemsByID[s.ItemID]
		if !ok {
			continue
		}
		if !IsAdmissible(&item, rc.effective.Dietary, rc.disliked) {
			continue
		}
		reorder = append(reorder, RecommendedItem{
			Item:     item,
			Score:    s.Score,
			ScoredBy: ScoredByHistory,
		})
	}
	return reorder
}

// newItemPool builds the candidate pool for new items: admissible catalog
// entries not already picked for reorder, narrowed by a cuisine override
// or item type when the request carries one. Stored favorite cuisines
// bias scoring but never narrow the pool.
func (e *Engine) newItemPool(req Request, rc *requestContext, reorder []RecommendedItem) []models.MenuItem {
	taken := make(map[string]struct{}, len(reorder))
	for _, r := range reorder {
		taken[r.Item.ID] = struct{}{}
	}

	pool := make([]models.MenuItem, 0, len(rc.items))
	for i := range rc.items {
		item := rc.items[i]
		if _, dup := taken[item.ID]; dup {
			continue
		}
		if !IsAdmissible(&item, rc.effective.Dietary, rc.disliked) {
			continue
		}
		if req.Override.HasCuisine() && !rc.effective.CuisineMatch(item.Cuisine) {
			continue
		}
		if req.Override.HasItemType() && !req.Override.ItemType.MatchesCategory(item.Category) {
			continue
		}
		pool = append(pool, item)
	}
	return pool
}

// rankNewItems ranks the pool through the latent model when it covers
// this user, topping up from the content scorer when latent ranking
// comes back short. Without a usable model entry the content scorer
// ranks everything. The bool reports whether latent scores contributed.
func (e *Engine) rankNewItems(ctx context.Context, req Request, rc *requestContext, pool []models.MenuItem) ([]RecommendedItem, bool) {
	if len(pool) == 0 {
		return nil, false
	}

	poolByID := make(map[string]models.MenuItem, len(pool))
	ids := make([]string, len(pool))
	for i := range pool {
		poolByID[pool[i].ID] = pool[i]
		ids[i] = pool[i].ID
	}

	contentRanked := e.content.RankCandidates(pool, rc.effective, rc.taste, req.Limit)

	latentScores := e.latentScores(ctx, req.UserID, ids)
	if len(latentScores) == 0 {
		return e.takeContent(contentRanked, poolByID, nil, req.Limit), false
	}

	blended := e.blendScores(latentScores, contentRanked)
	algorithms.SortScoredDescending(blended)

	chosen := make(map[string]struct{}, req.Limit)
	out := make([]RecommendedItem, 0, req.Limit)
	for _, s := range blended {
		if len(out) >= req.Limit {
			break
		}
		out = append(out, RecommendedItem{
			Item:     poolByID[s.ItemID],
			Score:    s.Score,
			ScoredBy: ScoredByLatent,
		})
		chosen[s.ItemID] = struct{}{}
	}

	if len(out) < req.Limit {
		out = append(out, e.takeContent(contentRanked, poolByID, chosen, req.Limit-len(out))...)
	}
	return out, true
}

// latentScores returns normalized latent predictions for the candidates,
// or nil when no model snapshot covers the user.
func (e *Engine) latentScores(ctx context.Context, userID string, candidates []string) map[string]float64 {
	snap := e.latent.Load()
	if snap == nil {
		metrics.RecordModelUnavailable()
		return nil
	}
	scores, err := snap.Predict(ctx, userID, candidates)
	if err != nil {
		// Prediction is in-memory arithmetic; an error here is a
		// programming fault, not a user condition. Fall back to content.
		e.logger.Error().Err(err).Str("user_id", userID).Msg("latent prediction failed")
		return nil
	}
	return scores
}

// blendScores mixes a slice of the content signal into the latent scores
// so near-tied latent candidates order by catalog strength. Content
// scores are scaled into [0, 1] against the pool maximum before mixing;
// the blend weight comes from configuration and 0 disables mixing.
func (e *Engine) blendScores(latentScores map[string]float64, contentRanked []algorithms.Scored) []algorithms.Scored {
	weight := e.config.ContentBlendWeight
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	var maxContent float64
	contentByID := make(map[string]float64, len(contentRanked))
	for _, s := range contentRanked {
		contentByID[s.ItemID] = s.Score
		if s.Score > maxContent {
			maxContent = s.Score
		}
	}

	blended := make([]algorithms.Scored, 0, len(latentScores))
	for id, latent := range latentScores {
		score := latent
		if weight > 0 && maxContent > 0 {
			score += weight * (contentByID[id] / maxContent)
		}
		blended = append(blended, algorithms.Scored{ItemID: id, Score: score})
	}
	return blended
}

// takeContent converts the leading content-ranked candidates into
// recommendations, skipping already-chosen IDs.
func (e *Engine) takeContent(ranked []algorithms.Scored, poolByID map[string]models.MenuItem, chosen map[string]struct{}, n int) []RecommendedItem {
	if n <= 0 {
		return nil
	}
	out := make([]RecommendedItem, 0, n)
	for _, s := range ranked {
		if len(out) >= n {
			break
		}
		if _, dup := chosen[s.ItemID]; dup {
			continue
		}
		out = append(out, RecommendedItem{
			Item:     poolByID[s.ItemID],
			Score:    s.Score,
			ScoredBy: ScoredByContent,
		})
	}
	return out
}

func (e *Engine) buildResponse(req Request, rc *requestContext, reorder, newItems []RecommendedItem, latentUsed bool, poolSize int, start time.Time) *Response {
	if reorder == nil {
		reorder = []RecommendedItem{}
	}
	if newItems == nil {
		newItems = []RecommendedItem{}
	}
	return &Response{
		ReorderItems: reorder,
		NewItems:     newItems,
		Constraints:  rc.effective,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			Intent:          req.Intent.String(),
			LatentUsed:      latentUsed,
			TotalCandidates: poolSize,
			LatencyMS:       time.Since(start).Milliseconds(),
			ModelVersion:    int(e.modelVersion.Load()),
		},
	}
}

// recordServed feeds the pipeline collectors for one served response,
// cached or freshly built.
func recordServed(req Request, resp *Response, start time.Time) {
	empty := len(resp.ReorderItems) == 0 && len(resp.NewItems) == 0
	metrics.RecordRecommendation(req.Intent.String(), scoredByLabel(resp),
		resp.Metadata.TotalCandidates, time.Since(start), empty)
}

// scoredByLabel summarizes which scorer produced the new-item list.
func scoredByLabel(resp *Response) string {
	if len(resp.NewItems) == 0 {
		return "none"
	}
	if !resp.Metadata.LatentUsed {
		return "content"
	}
	for _, item := range resp.NewItems {
		if item.ScoredBy == ScoredByContent {
			return "mixed"
		}
	}
	return "latent"
}

// Rebuild retrains the latent model from the full interaction log and
// swaps it in atomically. On failure the previous snapshot stays active.
// A log that cannot support training still swaps (to the explicit
// no-model state) and reports content_only: the model always reflects
// the current log, including its absence.
func (e *Engine) Rebuild(ctx context.Context) (*RebuildResult, error) {
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	e.logger.Info().Msg("starting model rebuild")

	interactions, err := e.stores.Log.AllInteractions(ctx)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecordTraining("failed", time.Since(start), 0, 0, 0)
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	fresh := algorithms.NewLatentFactors(e.latentConfig())
	if err := fresh.Train(ctx, interactions, nil); err != nil {
		e.errorCount.Add(1)
		metrics.RecordTraining("failed", time.Since(start), 0, 0, 0)
		return nil, fmt.Errorf("train latent model: %w", err)
	}

	version := int(e.modelVersion.Add(1))
	e.latent.Store(fresh)
	e.clearCache()

	result := &RebuildResult{
		Status:     RebuildContentOnly,
		UserCount:  countUniqueUsers(interactions),
		ItemCount:  countUniqueItems(interactions),
		Version:    version,
		DurationMS: time.Since(start).Milliseconds(),
	}
	outcome := "untrainable"
	if fresh.IsTrained() {
		result.Status = RebuildTrained
		result.UserCount = fresh.UserCount()
		result.ItemCount = fresh.ItemCount()
		outcome = "success"
	}
	metrics.RecordTraining(outcome, time.Since(start), fresh.Rank(), result.UserCount, result.ItemCount)

	e.persistSnapshot(fresh, version)

	e.logger.Info().
		Str("status", string(result.Status)).
		Int("user_count", result.UserCount).
		Int("item_count", result.ItemCount).
		Int("version", version).
		Int64("duration_ms", result.DurationMS).
		Msg("model rebuild complete")

	return result, nil
}

// persistSnapshot saves the freshly trained model when persistence is
// configured. Failures are logged, not returned: the in-memory swap
// already happened and the rebuild succeeded.
func (e *Engine) persistSnapshot(fresh *algorithms.LatentFactors, version int) {
	if e.snapshots == nil || !e.config.SnapshotOnTrain || !fresh.IsTrained() {
		return
	}
	state := fresh.ExportState()
	state.Version = version
	if err := e.snapshots.SaveLatent(state); err != nil {
		e.logger.Warn().Err(err).Int("version", version).Msg("model snapshot save failed")
	}
}

// RestoreSnapshot loads the most recent persisted model, if any, so a
// restart serves latent recommendations before the first retrain.
func (e *Engine) RestoreSnapshot() error {
	if e.snapshots == nil {
		return nil
	}

	state, err := e.snapshots.LoadLatestLatent()
	if err != nil {
		return fmt.Errorf("load latest snapshot: %w", err)
	}
	if state == nil {
		e.logger.Debug().Msg("no model snapshot to restore")
		return nil
	}

	restored := algorithms.NewLatentFactors(e.latentConfig())
	if err := restored.ImportState(state); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	e.latent.Store(restored)
	e.modelVersion.Store(int32(state.Version))
	e.clearCache()

	e.logger.Info().
		Int("version", state.Version).
		Int("user_count", restored.UserCount()).
		Int("item_count", restored.ItemCount()).
		Time("trained_at", state.TrainedAt).
		Msg("model snapshot restored")
	return nil
}

// LatentModel returns the active model snapshot, or nil before any
// rebuild or restore. Callers must not retrain the returned model; it is
// shared with in-flight requests.
func (e *Engine) LatentModel() *algorithms.LatentFactors {
	return e.latent.Load()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.cacheMu.RLock()
	entries := len(e.cache)
	e.cacheMu.RUnlock()

	snap := e.latent.Load()
	return Stats{
		Requests:     e.requestCount.Load(),
		Errors:       e.errorCount.Load(),
		CacheHits:    e.cacheHits.Load(),
		CacheMisses:  e.cacheMisses.Load(),
		CacheEntries: entries,
		ModelVersion: int(e.modelVersion.Load()),
		LatentReady:  snap != nil && snap.IsTrained(),
	}
}

// tryGetCachedResponse returns a cached response when caching is on and
// a fresh entry matches the request.
func (e *Engine) tryGetCachedResponse(req Request, start time.Time, logger zerolog.Logger) *Response {
	if e.config.CacheTTL <= 0 {
		return nil
	}

	resp := e.checkCache(e.cacheKey(req))
	if resp == nil {
		e.cacheMisses.Add(1)
		metrics.RecordCacheMiss()
		return nil
	}

	e.cacheHits.Add(1)
	metrics.RecordCacheHit()
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Msg("cache hit")
	return resp
}

// cacheKey folds every request field that changes the response. The
// override is part of the key because overrides change both filtering
// and scoring.
func (e *Engine) cacheKey(req Request) string {
	dietary := make([]string, len(req.Override.Dietary))
	for i, d := range req.Override.Dietary {
		dietary[i] = string(d)
	}
	return fmt.Sprintf("rec:%s:%s:%d:%d:%s:%s:%s:%s",
		req.UserID, req.Intent, req.Limit, req.ReorderLimit,
		req.Override.Spice,
		strings.Join(dietary, ","),
		strings.Join(req.Override.Cuisines, ","),
		req.Override.ItemType)
}

// checkCache returns a copy of a live cached response, or nil.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return copyResponse(entry.response)
}

// copyResponse copies the item slices so callers and the cache never
// share mutable state.
func copyResponse(resp *Response) *Response {
	reorder := make([]RecommendedItem, len(resp.ReorderItems))
	copy(reorder, resp.ReorderItems)
	newItems := make([]RecommendedItem, len(resp.NewItems))
	copy(newItems, resp.NewItems)

	return &Response{
		ReorderItems: reorder,
		NewItems:     newItems,
		Constraints:  resp.Constraints,
		Metadata:     resp.Metadata,
	}
}

func (e *Engine) cacheResponse(req Request, resp *Response) {
	if e.config.CacheTTL <= 0 {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= maxCacheEntries {
		e.evictExpiredLocked()
	}
	e.cache[e.cacheKey(req)] = cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(e.config.CacheTTL),
	}
}

// clearCache drops every cached response; called after a model swap so
// stale rankings never outlive the snapshot that produced them.
func (e *Engine) clearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache = make(map[string]cacheEntry)
}

// evictExpiredLocked removes expired entries. Caller holds cacheMu.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

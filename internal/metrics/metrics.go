// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package metrics provides Prometheus instrumentation for Palate.
//
// Collectors cover the recommendation pipeline (request latency, scoring
// path, candidate counts), model training, request interpretation, the
// event bus, the session store, and the rendering circuit breaker. All
// collectors are registered via promauto at package load; callers use the
// Record* helpers rather than touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_recommendation_requests_total",
			Help: "Total recommendation requests by intent and scoring path",
		},
		[]string{"intent", "scored_by"}, // scored_by: "latent", "content", "mixed", "none"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_recommendation_candidates",
			Help:    "Admissible candidate pool size per request",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	RecommendationEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_recommendation_empty_total",
			Help: "Requests that produced no recommendations",
		},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_recommendation_cache_hits_total",
			Help: "Recommendation responses served from the response cache",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_recommendation_cache_misses_total",
			Help: "Recommendation requests that missed the response cache",
		},
	)

	// Model training metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_training_runs_total",
			Help: "Latent model training runs by outcome",
		},
		[]string{"outcome"}, // "success", "untrainable", "failed", "skipped"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_training_duration_seconds",
			Help:    "Latent model training duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	ModelRank = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_model_rank",
			Help: "Rank of the active latent model (0 when unavailable)",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_model_users",
			Help: "User rows in the active latent model",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_model_items",
			Help: "Item columns in the active latent model",
		},
	)

	EvalPrecision = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_eval_precision_at_k",
			Help: "Offline holdout precision@k from the last evaluation",
		},
	)

	EvalRecall = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_eval_recall_at_k",
			Help: "Offline holdout recall@k from the last evaluation",
		},
	)

	EvalCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_eval_coverage",
			Help: "Catalog share recommended at least once in the last evaluation",
		},
	)

	// Request interpreter metrics
	IntentClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_intent_classified_total",
			Help: "Classified intents by type",
		},
		[]string{"intent"},
	)

	OverridesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_overrides_extracted_total",
			Help: "Request overrides extracted by kind",
		},
		[]string{"kind"}, // "spice", "dietary", "cuisine", "item_type"
	)

	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_conflicts_detected_total",
			Help: "Profile/override conflicts detected by type",
		},
		[]string{"type"}, // "spice", "dietary", "cuisine"
	)

	LoopBreakerTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_loop_breaker_total",
			Help: "Conversations de-escalated by the loop breaker",
		},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_events_published_total",
			Help: "Events published to NATS by subject class",
		},
		[]string{"class"}, // "order", "rating", "chat", "admin"
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_events_consumed_total",
			Help: "Events consumed from NATS by subject class",
		},
		[]string{"class"},
	)

	EventsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_events_duplicate_total",
			Help: "Events skipped as duplicates by event ID",
		},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_events_failed_total",
			Help: "Event handling failures by subject class",
		},
		[]string{"class"},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palate_event_processing_duration_seconds",
			Help:    "Event handler duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Session store metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_sessions_active",
			Help: "Sessions currently held by the session store",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_sessions_expired_total",
			Help: "Sessions evicted by TTL cleanup",
		},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "palate_store_query_duration_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palate_store_query_errors_total",
			Help: "Store operation failures",
		},
		[]string{"operation"},
	)

	// Renderer circuit breaker metrics
	RendererState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "palate_renderer_breaker_state",
			Help: "Renderer circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	RendererFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palate_renderer_fallbacks_total",
			Help: "Responses rendered by the template fallback after a renderer failure",
		},
	)
)

// RecordRecommendation records one served recommendation request.
func RecordRecommendation(intent, scoredBy string, candidates int, duration time.Duration, empty bool) {
	RecommendationRequests.WithLabelValues(intent, scoredBy).Inc()
	RecommendationDuration.WithLabelValues(intent).Observe(duration.Seconds())
	RecommendationCandidates.Observe(float64(candidates))
	if empty {
		RecommendationEmpty.Inc()
	}
}

// RecordCacheHit records one response served from the response cache.
func RecordCacheHit() {
	RecommendationCacheHits.Inc()
}

// RecordCacheMiss records one request that missed the response cache.
func RecordCacheMiss() {
	RecommendationCacheMisses.Inc()
}

// RecordTraining records a training run and, on success, the resulting
// model shape. Outcome is one of "success", "untrainable", "failed",
// "skipped".
func RecordTraining(outcome string, duration time.Duration, rank, users, items int) {
	TrainingRuns.WithLabelValues(outcome).Inc()
	TrainingDuration.Observe(duration.Seconds())
	if outcome == "success" {
		ModelRank.Set(float64(rank))
		ModelUsers.Set(float64(users))
		ModelItems.Set(float64(items))
	}
}

// RecordEvaluation records the latest offline evaluation results.
func RecordEvaluation(precision, recall, coverage float64) {
	EvalPrecision.Set(precision)
	EvalRecall.Set(recall)
	EvalCoverage.Set(coverage)
}

// RecordModelUnavailable zeroes the model gauges when no usable latent
// snapshot is available to serve from.
func RecordModelUnavailable() {
	ModelRank.Set(0)
	ModelUsers.Set(0)
	ModelItems.Set(0)
}

// RecordIntent records one intent classification.
func RecordIntent(intent string) {
	IntentClassified.WithLabelValues(intent).Inc()
}

// RecordOverride records one extracted override of the given kind.
func RecordOverride(kind string) {
	OverridesExtracted.WithLabelValues(kind).Inc()
}

// RecordConflict records one detected conflict of the given type.
func RecordConflict(conflictType string) {
	ConflictsDetected.WithLabelValues(conflictType).Inc()
}

// RecordLoopBreaker records one loop-breaker de-escalation.
func RecordLoopBreaker() {
	LoopBreakerTriggered.Inc()
}

// RecordEventPublished records one published event.
func RecordEventPublished(class string) {
	EventsPublished.WithLabelValues(class).Inc()
}

// RecordEventConsumed records one consumed event and its handler duration.
func RecordEventConsumed(class string, duration time.Duration, err error) {
	EventsConsumed.WithLabelValues(class).Inc()
	EventProcessingDuration.Observe(duration.Seconds())
	if err != nil {
		EventsFailed.WithLabelValues(class).Inc()
	}
}

// RecordEventDuplicate records one event skipped by ID deduplication.
func RecordEventDuplicate() {
	EventsDuplicate.Inc()
}

// RecordSessionCount sets the active session gauge.
func RecordSessionCount(n int) {
	SessionsActive.Set(float64(n))
}

// RecordSessionsExpired adds evicted sessions to the expiry counter.
func RecordSessionsExpired(n int) {
	SessionsExpired.Add(float64(n))
}

// RecordStoreQuery records one store operation.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRendererState sets the renderer breaker state gauge.
func RecordRendererState(state int) {
	RendererState.Set(float64(state))
}

// RecordRendererFallback records one template-fallback render.
func RecordRendererFallback() {
	RendererFallbacks.Inc()
}

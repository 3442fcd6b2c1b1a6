// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// LatentConfig contains configuration for the latent factor model.
type LatentConfig struct {
	// MaxRank caps the dimension of the latent factor vectors. The
	// effective rank is min(MaxRank, min(#users, #items) - 1), so a small
	// catalog or user base automatically trains a smaller model.
	MaxRank int

	// MinViableRank is the floor below which the model is untrainable.
	// When min(#users, #items) - 1 falls under this floor the model stays
	// untrained and the engine scores entirely through content.
	MinViableRank int

	// NumIterations is the number of alternating optimization rounds.
	NumIterations int

	// Regularization is the L2 regularization parameter.
	Regularization float64

	// Alpha scales the confidence transformation for implicit feedback:
	// c = 1 + alpha * q, where q is the summed order quantity.
	Alpha float64

	// NumWorkers is the number of parallel workers for factor updates.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultLatentConfig returns the default latent model configuration.
func DefaultLatentConfig() LatentConfig {
	return LatentConfig{
		MaxRank:        8,
		MinViableRank:  2,
		NumIterations:  15,
		Regularization: 0.1,
		Alpha:          40.0,
		NumWorkers:     4,
	}
}

// LatentFactors implements alternating least squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets"
// (Hu, Koren, Volinsky, 2008).
//
// The interaction matrix is factorized into user and item latent matrices
// of adaptive rank. The objective minimizes
//
//	sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 if user u ordered item i and c_ui = 1 + alpha * q_ui is
// the confidence derived from the summed quantity.
//
// Everything here is keyed by business ID at the boundary; row and column
// indices are rebuilt from scratch on every train and never exposed.
type LatentFactors struct {
	BaseAlgorithm
	config LatentConfig

	// rank is the effective factor dimension chosen at train time.
	rank int

	// X is the user factor matrix (numUsers x rank).
	X [][]float64

	// Y is the item factor matrix (numItems x rank).
	Y [][]float64

	userIndex   map[string]int
	itemIndex   map[string]int
	indexToUser []string
	indexToItem []string
}

// NewLatentFactors creates a latent factor model with the given configuration.
func NewLatentFactors(cfg LatentConfig) *LatentFactors {
	if cfg.MaxRank <= 0 {
		cfg.MaxRank = 8
	}
	if cfg.MinViableRank <= 0 {
		cfg.MinViableRank = 2
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = 15
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.1
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 40.0
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}

	return &LatentFactors{
		BaseAlgorithm: NewBaseAlgorithm("latent"),
		config:        cfg,
		userIndex:     make(map[string]int),
		itemIndex:     make(map[string]int),
	}
}

// effectiveRank returns the factor dimension for the given matrix shape,
// or 0 when the floor cannot be met.
func (l *LatentFactors) effectiveRank(numUsers, numItems int) int {
	smaller := numUsers
	if numItems < smaller {
		smaller = numItems
	}
	rank := smaller - 1
	if rank > l.config.MaxRank {
		rank = l.config.MaxRank
	}
	if rank < l.config.MinViableRank {
		return 0
	}
	return rank
}

// Train fits the model on the interaction log. An empty log or a matrix
// too small to meet the rank floor leaves the model untrained without an
// error; the engine treats the untrained state as "use content scoring".
//
//nolint:gocyclo // alternating optimization is inherently branchy
func (l *LatentFactors) Train(ctx context.Context, interactions []models.Interaction, _ []models.MenuItem) error {
	l.acquireTrainLock()
	defer l.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	matrix := BuildMatrix(interactions)
	if matrix.Empty() {
		l.markUntrained()
		return nil
	}

	numUsers := matrix.UserCount()
	numItems := matrix.ItemCount()
	rank := l.effectiveRank(numUsers, numItems)
	if rank == 0 {
		l.markUntrained()
		return nil
	}

	// Confidence matrix, sparse: C[u][i] = 1 + alpha * q[u][i].
	userItems := make(map[int]map[int]float64, numUsers)
	itemUsers := make(map[int]map[int]float64, numItems)
	for ui := 0; ui < numUsers; ui++ {
		row := matrix.Row(ui)
		if len(row) == 0 {
			continue
		}
		userItems[ui] = make(map[int]float64, len(row))
		for ii, quantity := range row {
			conf := 1.0 + l.config.Alpha*quantity
			userItems[ui][ii] = conf
			if itemUsers[ii] == nil {
				itemUsers[ii] = make(map[int]float64)
			}
			itemUsers[ii][ui] = conf
		}
	}

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Deterministic small-value initialization keeps retrains on the same
	// log reproducible.
	X := make([][]float64, numUsers)
	for u := 0; u < numUsers; u++ {
		X[u] = make([]float64, rank)
		for f := 0; f < rank; f++ {
			X[u][f] = 0.1 * (float64((u*rank+f)%1000)/1000.0 - 0.5)
		}
	}
	Y := make([][]float64, numItems)
	for i := 0; i < numItems; i++ {
		Y[i] = make([]float64, rank)
		for f := 0; f < rank; f++ {
			Y[i][f] = 0.1 * (float64((i*rank+f)%1000)/1000.0 - 0.5)
		}
	}

	lambda := l.config.Regularization
	for iter := 0; iter < l.config.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		l.updateFactors(X, Y, userItems, rank, lambda)

		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		l.updateFactors(Y, X, itemUsers, rank, lambda)
	}

	l.rank = rank
	l.X = X
	l.Y = Y
	l.userIndex = make(map[string]int, numUsers)
	l.indexToUser = append([]string(nil), matrix.UserIDs()...)
	for ui, id := range l.indexToUser {
		l.userIndex[id] = ui
	}
	l.itemIndex = make(map[string]int, numItems)
	l.indexToItem = append([]string(nil), matrix.ItemIDs()...)
	for ii, id := range l.indexToItem {
		l.itemIndex[id] = ii
	}

	l.markTrained()
	return nil
}

// updateFactors solves for every row of target while fixed is held
// constant. Called once per iteration with (X, Y) for the user step and
// (Y, X) for the item step; the math is symmetric.
func (l *LatentFactors) updateFactors(target, fixed [][]float64, links map[int]map[int]float64, rank int, lambda float64) {
	// Precompute F'F over the fixed side.
	ftf := make([][]float64, rank)
	for f := range ftf {
		ftf[f] = make([]float64, rank)
	}
	for _, vec := range fixed {
		for f1 := 0; f1 < rank; f1++ {
			for f2 := f1; f2 < rank; f2++ {
				ftf[f1][f2] += vec[f1] * vec[f2]
				if f1 != f2 {
					ftf[f2][f1] = ftf[f1][f2]
				}
			}
		}
	}

	numRows := len(target)
	var wg sync.WaitGroup
	chunkSize := (numRows + l.config.NumWorkers - 1) / l.config.NumWorkers

	for w := 0; w < l.config.NumWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > numRows {
			end = numRows
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()
			for r := rStart; r < rEnd; r++ {
				target[r] = solveRow(fixed, links[r], ftf, rank, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveRow solves the per-row normal equations
//
//	A = F' * C^r * F + lambda * I
//	b = F' * C^r * p^r
//
// for one user or item row via Cholesky decomposition.
func solveRow(fixed [][]float64, links map[int]float64, ftf [][]float64, rank int, lambda float64) []float64 {
	A := make([][]float64, rank)
	for f := range A {
		A[f] = make([]float64, rank)
		copy(A[f], ftf[f])
		A[f][f] += lambda
	}

	b := make([]float64, rank)
	for other, conf := range links {
		vec := fixed[other]
		cMinus1 := conf - 1.0

		for f1 := 0; f1 < rank; f1++ {
			for f2 := f1; f2 < rank; f2++ {
				delta := cMinus1 * vec[f1] * vec[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += conf * vec[f1]
		}
	}

	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// Not positive definite; nudge the diagonal.
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// Forward substitution: L * z = b.
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Back substitution: L' * x = z.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// HasUser reports whether the trained model covers the user. Always false
// on an untrained model.
func (l *LatentFactors) HasUser(userID string) bool {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained {
		return false
	}
	_, ok := l.userIndex[userID]
	return ok
}

// HasItem reports whether the trained model covers the item.
func (l *LatentFactors) HasItem(itemID string) bool {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained {
		return false
	}
	_, ok := l.itemIndex[itemID]
	return ok
}

// PredictScore reconstructs the affinity of one (user, item) pair as the
// dot product of their factor vectors. The second return value is false
// when either side is outside the index; the score is then undefined and
// the float value must not be used.
func (l *LatentFactors) PredictScore(userID, itemID string) (float64, bool) {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	return l.predictLocked(userID, itemID)
}

// predictLocked computes a raw dot product. Caller holds at least the
// prediction lock.
func (l *LatentFactors) predictLocked(userID, itemID string) (float64, bool) {
	if !l.trained {
		return 0, false
	}
	ui, ok := l.userIndex[userID]
	if !ok {
		return 0, false
	}
	ii, ok := l.itemIndex[itemID]
	if !ok {
		return 0, false
	}

	userVec := l.X[ui]
	itemVec := l.Y[ii]
	var score float64
	for f := range userVec {
		score += userVec[f] * itemVec[f]
	}
	return score, true
}

// Predict returns normalized scores for the candidates the model covers.
// A nil map means the model is unusable for this user.
func (l *LatentFactors) Predict(_ context.Context, userID string, candidates []string) (map[string]float64, error) {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained || len(l.X) == 0 || len(l.Y) == 0 {
		return nil, nil
	}
	ui, ok := l.userIndex[userID]
	if !ok {
		return nil, nil
	}

	userVec := l.X[ui]
	scores := make(map[string]float64, len(candidates))
	for _, itemID := range candidates {
		ii, ok := l.itemIndex[itemID]
		if !ok {
			continue
		}
		var score float64
		for f := range userVec {
			score += userVec[f] * l.Y[ii][f]
		}
		scores[itemID] = score
	}

	return normalizeScores(scores), nil
}

// PredictSimilar scores candidates by cosine similarity of item factors
// against the given item. A nil map means the model cannot place the item.
func (l *LatentFactors) PredictSimilar(_ context.Context, itemID string, candidates []string) (map[string]float64, error) {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained || len(l.Y) == 0 {
		return nil, nil
	}
	sourceIdx, ok := l.itemIndex[itemID]
	if !ok {
		return nil, nil
	}

	sourceVec := l.Y[sourceIdx]
	scores := make(map[string]float64, len(candidates))
	for _, candidateID := range candidates {
		if candidateID == itemID {
			continue
		}
		candidateIdx, ok := l.itemIndex[candidateID]
		if !ok {
			continue
		}
		score := cosineSimilarity(sourceVec, l.Y[candidateIdx])
		if score > 0 {
			scores[candidateID] = score
		}
	}

	return normalizeScores(scores), nil
}

// RankCandidates orders the candidates the model can score for this user,
// best first, skipping excluded IDs and candidates outside the item index.
// Ties break lexicographically by item ID so the ordering is reproducible
// on the same snapshot. Returns nil when the model is unusable for the
// user; an empty non-nil slice means usable but nothing scoreable.
func (l *LatentFactors) RankCandidates(userID string, candidates []string, exclude map[string]struct{}) []Scored {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained || len(l.X) == 0 || len(l.Y) == 0 {
		return nil
	}
	ui, ok := l.userIndex[userID]
	if !ok {
		return nil
	}

	userVec := l.X[ui]
	scored := make([]Scored, 0, len(candidates))
	for _, itemID := range candidates {
		if _, skip := exclude[itemID]; skip {
			continue
		}
		ii, ok := l.itemIndex[itemID]
		if !ok {
			continue
		}
		var score float64
		for f := range userVec {
			score += userVec[f] * l.Y[ii][f]
		}
		scored = append(scored, Scored{ItemID: itemID, Score: score})
	}

	SortScoredDescending(scored)
	return scored
}

// UserCount returns the number of users the trained model covers.
func (l *LatentFactors) UserCount() int {
	l.acquirePredictLock()
	defer l.releasePredictLock()
	return len(l.indexToUser)
}

// ItemCount returns the number of items the trained model covers.
func (l *LatentFactors) ItemCount() int {
	l.acquirePredictLock()
	defer l.releasePredictLock()
	return len(l.indexToItem)
}

// Rank returns the factor dimension chosen at train time.
func (l *LatentFactors) Rank() int {
	l.acquirePredictLock()
	defer l.releasePredictLock()
	return l.rank
}

// LatentState is the serializable snapshot of a trained model.
type LatentState struct {
	Rank        int
	UserFactors [][]float64
	ItemFactors [][]float64
	UserIDs     []string
	ItemIDs     []string
	Version     int
	TrainedAt   time.Time
}

// ExportState returns a deep copy of the trained state for persistence,
// or nil when the model is untrained.
func (l *LatentFactors) ExportState() *LatentState {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained {
		return nil
	}

	state := &LatentState{
		Rank:        l.rank,
		UserFactors: copyMatrix(l.X),
		ItemFactors: copyMatrix(l.Y),
		UserIDs:     append([]string(nil), l.indexToUser...),
		ItemIDs:     append([]string(nil), l.indexToItem...),
		Version:     l.version,
		TrainedAt:   l.lastTrainedAt,
	}
	return state
}

// ImportState loads a persisted snapshot, replacing any current state.
// Used to restore a trained model at startup without retraining.
func (l *LatentFactors) ImportState(state *LatentState) error {
	if state == nil {
		return fmt.Errorf("nil latent state")
	}
	if len(state.UserFactors) != len(state.UserIDs) || len(state.ItemFactors) != len(state.ItemIDs) {
		return fmt.Errorf("latent state shape mismatch: %d/%d user rows, %d/%d item rows",
			len(state.UserFactors), len(state.UserIDs), len(state.ItemFactors), len(state.ItemIDs))
	}

	l.acquireTrainLock()
	defer l.releaseTrainLock()

	l.rank = state.Rank
	l.X = copyMatrix(state.UserFactors)
	l.Y = copyMatrix(state.ItemFactors)
	l.indexToUser = append([]string(nil), state.UserIDs...)
	l.indexToItem = append([]string(nil), state.ItemIDs...)
	l.userIndex = make(map[string]int, len(l.indexToUser))
	for ui, id := range l.indexToUser {
		l.userIndex[id] = ui
	}
	l.itemIndex = make(map[string]int, len(l.indexToItem))
	for ii, id := range l.indexToItem {
		l.itemIndex[id] = ii
	}

	l.trained = true
	l.version = state.Version
	l.lastTrainedAt = state.TrainedAt
	return nil
}

// copyMatrix deep-copies a factor matrix.
func copyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = make([]float64, len(m[i]))
		copy(out[i], m[i])
	}
	return out
}

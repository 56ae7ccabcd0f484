// Package gbt implements gradient-boosted regression trees with a squared-error
// objective and histogram split finding.
//
// Each feature is quantized once into at most MaxBins buckets; every tree is
// then grown greedily, depth first, by scanning per-node gradient histograms.
// Leaves carry the shrunken Newton step -G/(H+lambda) so prediction is a plain
// sum over trees. Training is deterministic for identical input.
package gbt

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Default hyper-parameters.
const (
	DefaultNumTrees       = 100
	DefaultMaxDepth       = 6
	DefaultLearningRate   = 0.1
	DefaultLambda         = 1.0
	DefaultMinChildWeight = 1.0
	DefaultMaxBins        = 64

	maxBinsLimit = 256
	minSplitGain = 1e-12
)

// Sentinel kinds for training errors.
var (
	ErrNoData        = errors.New("no training rows")
	ErrShapeMismatch = errors.New("row and target shapes differ")
	ErrBadParams     = errors.New("invalid boosting parameters")
)

// Params controls boosting. The zero value is not valid; start from DefaultParams.
type Params struct {
	NumTrees       int     `json:"num_trees"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
	MaxBins        int     `json:"max_bins"`
}

// DefaultParams returns the fixed production hyper-parameters.
func DefaultParams() Params {
	return Params{
		NumTrees:       DefaultNumTrees,
		MaxDepth:       DefaultMaxDepth,
		LearningRate:   DefaultLearningRate,
		Lambda:         DefaultLambda,
		MinChildWeight: DefaultMinChildWeight,
		MaxBins:        DefaultMaxBins,
	}
}

func (p Params) validate() error {
	switch {
	case p.NumTrees < 1:
		return fmt.Errorf("%w: num trees %d", ErrBadParams, p.NumTrees)
	case p.MaxDepth < 1:
		return fmt.Errorf("%w: max depth %d", ErrBadParams, p.MaxDepth)
	case !(p.LearningRate > 0):
		return fmt.Errorf("%w: learning rate %v", ErrBadParams, p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("%w: lambda %v", ErrBadParams, p.Lambda)
	case p.MaxBins < 2 || p.MaxBins > maxBinsLimit:
		return fmt.Errorf("%w: max bins %d", ErrBadParams, p.MaxBins)
	}
	return nil
}

// Option adjusts Params before fitting.
type Option func(*Params)

// WithNumTrees overrides the number of boosting rounds.
func WithNumTrees(n int) Option {
	return func(p *Params) { p.NumTrees = n }
}

// WithMaxDepth overrides the maximum tree depth.
func WithMaxDepth(d int) Option {
	return func(p *Params) { p.MaxDepth = d }
}

// WithLearningRate overrides the shrinkage applied to each tree.
func WithLearningRate(lr float64) Option {
	return func(p *Params) { p.LearningRate = lr }
}

// Node is one tree node. Internal nodes route x[Feature] <= Threshold left.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a trained ensemble.
type Model struct {
	NumFeatures int       `json:"num_features"`
	BaseScore   float64   `json:"base_score"`
	Trees       []Tree    `json:"trees"`
	Gains       []float64 `json:"gains"`
	Params      Params    `json:"params"`
}

// Predict returns the raw ensemble output for x. x must have NumFeatures entries.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != m.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrShapeMismatch, len(x), m.NumFeatures)
	}
	out := m.BaseScore
	for i := range m.Trees {
		out += m.Trees[i].predict(x)
	}
	return out, nil
}

// FeatureImportance returns the total split gain per feature normalized to sum to 1.
// A model without splits reports all zeros.
func (m *Model) FeatureImportance() []float64 {
	out := make([]float64, m.NumFeatures)
	var total float64
	for _, g := range m.Gains {
		total += g
	}
	if total <= 0 {
		return out
	}
	for i := range out {
		if i < len(m.Gains) {
			out[i] = m.Gains[i] / total
		}
	}
	return out
}

// Validate checks that a decoded model is internally consistent.
func (m *Model) Validate() error {
	if m.NumFeatures < 1 {
		return fmt.Errorf("%w: model has %d features", ErrShapeMismatch, m.NumFeatures)
	}
	for ti := range m.Trees {
		nodes := m.Trees[ti].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrShapeMismatch, ti)
		}
		for ni, n := range nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures ||
				n.Left <= ni || n.Left >= len(nodes) || n.Right <= ni || n.Right >= len(nodes) {
				return fmt.Errorf("%w: tree %d node %d is malformed", ErrShapeMismatch, ti, ni)
			}
		}
	}
	return nil
}

// Fit trains an ensemble on rows/targets.
func Fit(rows [][]float64, targets []float64, opts ...Option) (*Model, error) {
	params := DefaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(rows), len(targets))
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrShapeMismatch)
	}
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(r), dim)
		}
	}

	b := newBuilder(rows, targets, params)
	m := &Model{
		NumFeatures: dim,
		BaseScore:   b.base,
		Trees:       make([]Tree, 0, params.NumTrees),
		Gains:       b.gains,
		Params:      params,
	}
	for t := 0; t < params.NumTrees; t++ {
		m.Trees = append(m.Trees, b.grow())
	}
	return m, nil
}

// builder holds the quantized training set and running predictions.
type builder struct {
	params Params
	n, dim int
	cuts   [][]float64 // per feature, ascending split candidates
	bins   [][]uint8   // per feature, per row bucket index
	y      []float64
	pred   []float64
	grad   []float64
	gains  []float64
	base   float64

	histG []float64
	histH []float64
	idx   []int
}

func newBuilder(rows [][]float64, y []float64, params Params) *builder {
	n, dim := len(rows), len(rows[0])
	b := &builder{
		params: params,
		n:      n,
		dim:    dim,
		cuts:   make([][]float64, dim),
		bins:   make([][]uint8, dim),
		y:      y,
		pred:   make([]float64, n),
		grad:   make([]float64, n),
		gains:  make([]float64, dim),
		histG:  make([]float64, params.MaxBins),
		histH:  make([]float64, params.MaxBins),
		idx:    make([]int, n),
	}

	col := make([]float64, n)
	for f := 0; f < dim; f++ {
		for i := range rows {
			col[i] = rows[i][f]
		}
		b.cuts[f] = candidateCuts(col, params.MaxBins)
		b.bins[f] = make([]uint8, n)
		for i, v := range col {
			b.bins[f][i] = uint8(sort.SearchFloat64s(b.cuts[f], v)) //nolint:gosec // bounded by MaxBins <= 256
		}
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	b.base = sum / float64(n)
	for i := range b.pred {
		b.pred[i] = b.base
	}
	return b
}

// candidateCuts returns at most maxBins-1 ascending thresholds for a column.
// Few distinct values get a midpoint between each neighbour pair; otherwise
// midpoints are taken at evenly spaced ranks of the distinct values.
func candidateCuts(col []float64, maxBins int) []float64 {
	sorted := make([]float64, len(col))
	copy(sorted, col)
	sort.Float64s(sorted)

	uniq := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	if len(uniq) <= maxBins {
		cuts := make([]float64, len(uniq)-1)
		for i := 1; i < len(uniq); i++ {
			cuts[i-1] = midpoint(uniq[i-1], uniq[i])
		}
		return cuts
	}

	cuts := make([]float64, 0, maxBins-1)
	last := 0
	for k := 1; k < maxBins; k++ {
		j := k * len(uniq) / maxBins
		if j <= last {
			continue
		}
		cuts = append(cuts, midpoint(uniq[j-1], uniq[j]))
		last = j
	}
	return cuts
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

// grow fits one tree to the current gradients and folds it into pred.
func (b *builder) grow() Tree {
	for i := range b.grad {
		b.grad[i] = b.pred[i] - b.y[i]
		b.idx[i] = i
	}
	var t Tree
	b.build(&t, b.idx, 0)
	return t
}

func (b *builder) build(t *Tree, idx []int, depth int) int {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{})

	var g float64
	for _, i := range idx {
		g += b.grad[i]
	}
	h := float64(len(idx))

	if depth < b.params.MaxDepth && len(idx) >= 2 {
		if f, bin, gain, ok := b.bestSplit(idx, g, h); ok {
			split := partition(idx, b.bins[f], uint8(bin)) //nolint:gosec // bin < MaxBins
			left := b.build(t, idx[:split], depth+1)
			right := b.build(t, idx[split:], depth+1)
			t.Nodes[id] = Node{Feature: f, Threshold: b.cuts[f][bin], Left: left, Right: right}
			b.gains[f] += gain
			return id
		}
	}

	value := -g / (h + b.params.Lambda) * b.params.LearningRate
	t.Nodes[id] = Node{Leaf: true, Value: value}
	for _, i := range idx {
		b.pred[i] += value
	}
	return id
}

// bestSplit scans every feature histogram for the highest-gain split.
// Ties keep the earliest feature and bin.
func (b *builder) bestSplit(idx []int, g, h float64) (feature, bin int, gain float64, ok bool) {
	lambda := b.params.Lambda
	parent := g * g / (h + lambda)
	best := minSplitGain

	for f := 0; f < b.dim; f++ {
		nb := len(b.cuts[f]) + 1
		if nb < 2 {
			continue
		}
		hg, hh := b.histG[:nb], b.histH[:nb]
		for k := range hg {
			hg[k], hh[k] = 0, 0
		}
		col := b.bins[f]
		for _, i := range idx {
			hg[col[i]] += b.grad[i]
			hh[col[i]]++
		}

		var gl, hl float64
		for k := 0; k < nb-1; k++ {
			gl += hg[k]
			hl += hh[k]
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gn := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
			if gn > best && !math.IsNaN(gn) {
				best, feature, bin, ok = gn, f, k, true
			}
		}
	}
	return feature, bin, best, ok
}

// partition moves rows whose bucket is <= bin to the front and returns the split index.
func partition(idx []int, col []uint8, bin uint8) int {
	i := 0
	for j := range idx {
		if col[idx[j]] <= bin {
			idx[i], idx[j] = idx[j], idx[i]
			i++
		}
	}
	return i
}

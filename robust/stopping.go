package robust

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/robustfit/pkg/errors"
)

// StoppingCondition decides when RANSAC may stop early and whether the best
// result it found is acceptable.
//
// Conditions carry per-fit state. Init is called at the start of every
// FitData with the dataset size n and the minimal sample size k, and must
// reset everything learned in a previous fit. Returning false from Init
// aborts the fit.
//
// The built-in conditions are NumberInliers, PercentageInliers,
// ProbabilisticMinInliers and BestFit. Any other type implementing the
// interface can be passed to WithStoppingCondition.
type StoppingCondition interface {
	Init(n, k int) bool
	ShouldStopIterations(numInliers int) bool
	FinalFitCondition(numInliers int) bool
}

// NumberInliersCondition stops as soon as a model has at least Limit inliers.
type NumberInliersCondition struct {
	requested int
	limit     int
}

// NumberInliers stops and accepts once a model reaches limit inliers.
// The limit is raised to the minimal sample size at Init.
func NumberInliers(limit int) *NumberInliersCondition {
	return &NumberInliersCondition{requested: limit, limit: limit}
}

// Init fails when the dataset is smaller than the effective limit.
func (c *NumberInliersCondition) Init(n, k int) bool {
	c.limit = max(c.requested, k)
	return n >= c.limit
}

func (c *NumberInliersCondition) ShouldStopIterations(numInliers int) bool {
	return numInliers >= c.limit
}

func (c *NumberInliersCondition) FinalFitCondition(numInliers int) bool {
	return numInliers >= c.limit
}

// Limit returns the effective limit computed by the last Init.
func (c *NumberInliersCondition) Limit() int {
	return c.limit
}

func (c *NumberInliersCondition) String() string {
	return fmt.Sprintf("NumberInliers(%d)", c.requested)
}

// PercentageInliersCondition is NumberInliers with a limit relative to the
// dataset size.
type PercentageInliersCondition struct {
	percentage float64
	inner      NumberInliersCondition
}

// PercentageInliers stops and accepts once a model has round(pct*n) inliers.
// pct must lie in [0, 1], otherwise Init fails.
func PercentageInliers(pct float64) *PercentageInliersCondition {
	return &PercentageInliersCondition{percentage: pct}
}

func (c *PercentageInliersCondition) Init(n, k int) bool {
	if math.IsNaN(c.percentage) || c.percentage < 0 || c.percentage > 1 {
		return false
	}
	c.inner.requested = int(math.Round(c.percentage * float64(n)))
	return c.inner.Init(n, k)
}

func (c *PercentageInliersCondition) ShouldStopIterations(numInliers int) bool {
	return c.inner.ShouldStopIterations(numInliers)
}

func (c *PercentageInliersCondition) FinalFitCondition(numInliers int) bool {
	return c.inner.FinalFitCondition(numInliers)
}

// Limit returns the inlier count computed by the last Init.
func (c *PercentageInliersCondition) Limit() int {
	return c.inner.limit
}

func (c *PercentageInliersCondition) String() string {
	return fmt.Sprintf("PercentageInliers(%g)", c.percentage)
}

// Defaults of DefaultProbabilisticMinInliers.
const (
	DefaultInlierIsBadProbability = 0.1
	DefaultPercentageInliers      = 0.25
)

// ProbabilisticMinInliersCondition stops once the probability of never having
// drawn an all-inlier sample drops below the desired error probability, and
// accepts a model only if it has enough inliers that a wrong model could
// hardly have collected them by chance.
//
// The minimal inlier count m is the smallest count whose binomial tail
//
//	P(m) = sum_{i=m}^{n} C(n-k, i-k) b^(i-k) (1-b)^(n-i)
//
// is below the desired error probability, where b is the probability that a
// point agrees with a bad model. The sum is evaluated in log space.
type ProbabilisticMinInliersCondition struct {
	desiredErrorProbability float64
	inlierIsBadProbability  float64
	initialPercentage       float64

	// per-fit state
	n                 int
	k                 int
	minInliers        int
	percentageInliers float64
	bestInliers       int
	iteration         int
}

// ProbabilisticMinInliers creates the condition. All three probabilities must
// lie in (0, 1) (the inlier percentage may be 1), otherwise Init fails.
func ProbabilisticMinInliers(desiredErrorProbability, inlierIsBadProbability, percentageInliers float64) *ProbabilisticMinInliersCondition {
	return &ProbabilisticMinInliersCondition{
		desiredErrorProbability: desiredErrorProbability,
		inlierIsBadProbability:  inlierIsBadProbability,
		initialPercentage:       percentageInliers,
	}
}

// DefaultProbabilisticMinInliers uses DefaultInlierIsBadProbability and
// DefaultPercentageInliers.
func DefaultProbabilisticMinInliers(desiredErrorProbability float64) *ProbabilisticMinInliersCondition {
	return ProbabilisticMinInliers(desiredErrorProbability, DefaultInlierIsBadProbability, DefaultPercentageInliers)
}

func openUnit(p float64) bool {
	return p > 0 && p < 1
}

// Init computes the minimal inlier count. When no count up to n satisfies the
// bound, it is clamped to n and a ConfidenceWarning is emitted; Init still
// succeeds.
func (c *ProbabilisticMinInliersCondition) Init(n, k int) bool {
	if !openUnit(c.desiredErrorProbability) || !openUnit(c.inlierIsBadProbability) ||
		!(c.initialPercentage > 0 && c.initialPercentage <= 1) {
		return false
	}
	c.n, c.k = n, k
	c.percentageInliers = c.initialPercentage
	c.bestInliers = 0
	c.iteration = 0

	m, tail := c.minimalInliers()
	if m < 0 {
		c.minInliers = n
		errors.Warn(errors.NewConfidenceWarning(c.String(), c.desiredErrorProbability, math.Exp(tail), n, n))
		return true
	}
	c.minInliers = m
	return true
}

// minimalInliers returns the smallest m in (k, n] with P(m) below the desired
// probability, or -1 and log P(n) when there is none.
// P is decreasing in m, so the admissible counts form a suffix of (k, n].
func (c *ProbabilisticMinInliersCondition) minimalInliers() (int, float64) {
	n, k := c.n, c.k
	if n <= k {
		return -1, 0
	}
	logBad := math.Log(c.inlierIsBadProbability)
	logGood := math.Log1p(-c.inlierIsBadProbability)
	logDesired := math.Log(c.desiredErrorProbability)

	excess := float64(n - k)
	tail := math.Inf(-1)
	found := -1
	for i := n; i > k; i-- {
		term := combin.LogGeneralizedBinomial(excess, float64(i-k)) +
			float64(i-k)*logBad + float64(n-i)*logGood
		tail = floats.LogSumExp([]float64{tail, term})
		if tail >= logDesired {
			break
		}
		found = i
	}
	if found < 0 {
		// tail holds log P(n)
		return -1, tail
	}
	return found, tail
}

// ShouldStopIterations sets the inlier percentage to best/n, where best is the
// largest count seen so far, and stops when (1 - pct^k)^iteration <= desired.
// The initial percentage only applies before the first estimated model.
func (c *ProbabilisticMinInliersCondition) ShouldStopIterations(numInliers int) bool {
	if c.iteration == 0 || numInliers > c.bestInliers {
		c.bestInliers = max(c.bestInliers, numInliers)
		if c.n > 0 {
			c.percentageInliers = float64(c.bestInliers) / float64(c.n)
		}
	}
	c.iteration++

	currentProb := math.Pow(1-math.Pow(c.percentageInliers, float64(c.k)), float64(c.iteration))
	return currentProb <= c.desiredErrorProbability
}

func (c *ProbabilisticMinInliersCondition) FinalFitCondition(numInliers int) bool {
	return numInliers >= c.minInliers
}

// MinInliers returns the minimal inlier count computed by the last Init.
func (c *ProbabilisticMinInliersCondition) MinInliers() int {
	return c.minInliers
}

// PercentageInliers returns the current estimate of the inlier ratio.
func (c *ProbabilisticMinInliersCondition) PercentageInliers() float64 {
	return c.percentageInliers
}

func (c *ProbabilisticMinInliersCondition) String() string {
	return fmt.Sprintf("ProbabilisticMinInliers(%g)", c.desiredErrorProbability)
}

// BestFitCondition never stops early. A result is accepted only if it has
// strictly more inliers than the minimal sample size.
type BestFitCondition struct {
	k int
}

// BestFit consumes the whole iteration budget and keeps the best model.
func BestFit() *BestFitCondition {
	return &BestFitCondition{}
}

func (c *BestFitCondition) Init(n, k int) bool {
	c.k = k
	return true
}

func (c *BestFitCondition) ShouldStopIterations(int) bool {
	return false
}

func (c *BestFitCondition) FinalFitCondition(numInliers int) bool {
	return numInliers > c.k
}

func (c *BestFitCondition) String() string {
	return "BestFit"
}

var (
	_ StoppingCondition = (*NumberInliersCondition)(nil)
	_ StoppingCondition = (*PercentageInliersCondition)(nil)
	_ StoppingCondition = (*ProbabilisticMinInliersCondition)(nil)
	_ StoppingCondition = (*BestFitCondition)(nil)
)

// conditionName is used for logging.
func conditionName(sc StoppingCondition) string {
	if s, ok := sc.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", sc)
}

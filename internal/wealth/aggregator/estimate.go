package aggregator

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/providers"
	"wealthgate/pkg/domain"
)

// Observation is one successful provider answer.
type Observation struct {
	ProviderID string
	Weight     float64
	Signal     *providers.Signal
}

// Estimate is the combined view of a set of observations.
type Estimate struct {
	NetWorth    decimal.Decimal
	Score       int
	ByCategory  map[models.Category]decimal.Decimal
	Sources     []models.Source
	Trend       models.Trend
	Comparisons models.Comparisons
	Properties  []models.PropertyRef
}

const (
	trendTimeframe    = "12 months"
	trendStableBandPc = 1.0
)

// Combine folds observations into an estimate. Within a category, estimates
// are averaged with weight*reliability as the weight; category values are
// summed. The score is round(100 * meanReliability * agreement * coverage)
// where agreement is 1 - min(1, coefficient of variation) averaged across
// categories and coverage is responders/expected capped at 1.
func Combine(obs []Observation, expected int) Estimate {
	byCategory := make(map[models.Category][]Observation)
	for _, o := range obs {
		byCategory[o.Signal.Category] = append(byCategory[o.Signal.Category], o)
	}

	est := Estimate{
		NetWorth:   decimal.Zero,
		ByCategory: make(map[models.Category]decimal.Decimal, len(byCategory)),
	}
	agreementSum := 0.0
	for _, c := range models.Categories() {
		group, ok := byCategory[c]
		if !ok {
			continue
		}
		value := weightedMean(group)
		est.ByCategory[c] = value
		est.NetWorth = est.NetWorth.Add(value)
		agreementSum += agreement(group)
	}
	est.NetWorth = est.NetWorth.Round(2)

	if len(obs) > 0 {
		reliabilitySum := 0.0
		for _, o := range obs {
			reliabilitySum += o.Signal.Reliability
		}
		meanReliability := reliabilitySum / float64(len(obs))
		meanAgreement := agreementSum / float64(len(byCategory))
		coverage := 1.0
		if expected > 0 {
			coverage = math.Min(1, float64(len(obs))/float64(expected))
		}
		est.Score = clampScore(int(math.Round(100 * meanReliability * meanAgreement * coverage)))
	}

	est.Sources = sources(obs)
	est.Trend = trend(obs)
	est.Comparisons = comparisons(obs, est.NetWorth)
	est.Properties = properties(obs)
	return est
}

func weightedMean(group []Observation) decimal.Decimal {
	num := decimal.Zero
	den := decimal.Zero
	for _, o := range group {
		w := decimal.NewFromFloat(o.Weight * o.Signal.Reliability)
		num = num.Add(o.Signal.Estimate.Mul(w))
		den = den.Add(w)
	}
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}

// agreement is 1 for a single estimate and drops toward 0 as same-category
// estimates disagree.
func agreement(group []Observation) float64 {
	if len(group) < 2 {
		return 1
	}
	values := make([]float64, len(group))
	mean := 0.0
	for i, o := range group {
		values[i] = o.Signal.Estimate.InexactFloat64()
		mean += values[i]
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 1
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	cv := math.Sqrt(variance/float64(len(values))) / mean
	return 1 - math.Min(1, cv)
}

func clampScore(s int) int {
	return max(0, min(100, s))
}

func sources(obs []Observation) []models.Source {
	out := make([]models.Source, 0, len(obs))
	for _, o := range obs {
		out = append(out, models.Source{
			Name:        o.ProviderID,
			Weight:      o.Weight,
			Reliability: o.Signal.Reliability,
			LastUpdated: o.Signal.LastUpdated,
		})
	}
	slices.SortStableFunc(out, func(a, b models.Source) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// trend averages reported annual changes, weighted like the estimates.
func trend(obs []Observation) models.Trend {
	num, den := 0.0, 0.0
	for _, o := range obs {
		if o.Signal.AnnualChange == nil {
			continue
		}
		w := o.Weight * o.Signal.Reliability
		num += *o.Signal.AnnualChange * w
		den += w
	}
	t := models.Trend{Direction: models.TrendStable, Timeframe: trendTimeframe}
	if den == 0 {
		return t
	}
	pct := math.Round(num/den*10) / 10
	t.Percentage = pct
	switch {
	case pct > trendStableBandPc:
		t.Direction = models.TrendUp
	case pct < -trendStableBandPc:
		t.Direction = models.TrendDown
	}
	return t
}

// comparisons uses area statistics from the most reliable provider that
// reports them. The percentile assumes log-normally distributed wealth: each
// doubling over the area median adds 25 points.
func comparisons(obs []Observation, netWorth decimal.Decimal) models.Comparisons {
	var best *Observation
	for i := range obs {
		o := &obs[i]
		if o.Signal.Area == nil {
			continue
		}
		if best == nil || o.Signal.Reliability > best.Signal.Reliability {
			best = o
		}
	}
	if best == nil {
		return models.Comparisons{MedianInArea: decimal.Zero, AverageInArea: decimal.Zero}
	}

	area := best.Signal.Area
	c := models.Comparisons{MedianInArea: area.Median, AverageInArea: area.Average}
	median := area.Median.InexactFloat64()
	worth := netWorth.InexactFloat64()
	switch {
	case median <= 0:
		c.Percentile = 50
	case worth <= 0:
		c.Percentile = 1
	default:
		p := 50 + 25*math.Log2(worth/median)
		c.Percentile = int(math.Max(1, math.Min(99, math.Round(p))))
	}
	return c
}

func properties(obs []Observation) []models.PropertyRef {
	seen := make(map[domain.PropertyID]struct{})
	var out []models.PropertyRef
	for _, o := range obs {
		for _, p := range o.Signal.Properties {
			if _, dup := seen[p.PropertyID]; dup {
				continue
			}
			seen[p.PropertyID] = struct{}{}
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b models.PropertyRef) int {
		return b.EstimatedValue.Cmp(a.EstimatedValue)
	})
	return out
}

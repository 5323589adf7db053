package recommend

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/taskprofile"
)

// qualityMetric names the selected quality signal in imputation reports.
const qualityMetric = "quality_metric"

// Engine ranks candidate models against a task profile.
type Engine struct {
	throughputShare float64
	latencyShare    float64
}

// NewEngine creates a scoring engine with the default speed blend of 70%
// throughput and 30% latency.
func NewEngine() *Engine {
	return &Engine{
		throughputShare: 0.7,
		latencyShare:    0.3,
	}
}

// rawMetrics holds the unnormalized inputs of one candidate.
type rawMetrics struct {
	qualityColumn string
	quality       models.Optional[float64]
	throughput    models.Optional[float64]
	ttft          models.Optional[float64]
	price         models.Optional[float64]
}

// normalizedMetrics holds 0 to 1 component values after the missing policy.
type normalizedMetrics struct {
	quality    float64
	throughput float64
	latency    float64
	speed      float64
	cost       float64
	imputed    []string
}

// bounds is the min and max of one metric over present values.
type bounds struct {
	min, max float64
	ok       bool
}

// Rank filters candidates by the profile's constraints, scores the rest and
// returns them best first. Equal scores are ordered by canonical key. topK
// <= 0 returns every survivor.
func (e *Engine) Rank(profile models.TaskProfile, candidates map[string]models.Record, topK int) ([]models.ScoredRecommendation, error) {
	kept, err := filterCandidates(profile, candidates)
	if err != nil {
		return nil, err
	}

	metrics := e.extractMetrics(profile.TaskType, kept)
	normalized := e.normalizeMetrics(metrics, profile.MissingPolicy)

	recs := make([]models.ScoredRecommendation, len(kept))
	for i, r := range kept {
		m, n := metrics[i], normalized[i]
		score := profile.WeightQuality*n.quality +
			profile.WeightSpeed*n.speed +
			profile.WeightCost*n.cost

		recs[i] = models.ScoredRecommendation{
			CanonicalKey: r.CanonicalKey,
			ModelName:    r.ModelName,
			Provider:     r.Provider,
			Score:        round4(score),
			Metrics: models.ComponentMetrics{
				QualityColumn:    m.qualityColumn,
				QualityMetric:    m.quality,
				OutputTokensPerS: m.throughput,
				TTFTSeconds:      m.ttft,
				PriceInputPer1M:  m.price,
				ContextWindow:    r.ContextWindow,
				QualityNorm:      round4(n.quality),
				ThroughputNorm:   round4(n.throughput),
				LatencyNorm:      round4(n.latency),
				SpeedNorm:        round4(n.speed),
				CostNorm:         round4(n.cost),
				Imputed:          n.imputed,
			},
			Justification: buildJustification(profile, m, n),
			SnapshotTS:    r.SnapshotTS,
		}
	}

	sort.SliceStable(recs, func(a, b int) bool {
		if recs[a].Score != recs[b].Score {
			return recs[a].Score > recs[b].Score
		}
		return recs[a].CanonicalKey < recs[b].CanonicalKey
	})

	if topK > 0 && len(recs) > topK {
		recs = recs[:topK]
	}
	return recs, nil
}

// filterCandidates applies the exclusion filters and returns survivors in
// key order. Absent price or context never excludes a record.
func filterCandidates(profile models.TaskProfile, candidates map[string]models.Record) ([]models.Record, error) {
	var filters []string
	if profile.MaxPricePer1M != nil {
		filters = append(filters, fmt.Sprintf("max_price_per_1m <= %g", *profile.MaxPricePer1M))
	}
	if profile.MinContext != nil {
		filters = append(filters, fmt.Sprintf("min_context >= %d", *profile.MinContext))
	}
	if len(profile.ProviderAllowlist) > 0 {
		filters = append(filters, "provider in ["+strings.Join(profile.ProviderAllowlist, ", ")+"]")
	}

	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	allowed := make(map[string]bool, len(profile.ProviderAllowlist))
	for _, p := range profile.ProviderAllowlist {
		allowed[taskprofile.FoldProvider(p)] = true
	}

	kept := make([]models.Record, 0, len(keys))
	for _, k := range keys {
		r := candidates[k]
		if profile.MaxPricePer1M != nil {
			if p, ok := r.PriceInputPer1M.Get(); ok && p > *profile.MaxPricePer1M {
				continue
			}
		}
		if profile.MinContext != nil {
			if c, ok := r.ContextWindow.Get(); ok && c < *profile.MinContext {
				continue
			}
		}
		if len(allowed) > 0 && !allowed[taskprofile.FoldProvider(r.Provider)] {
			continue
		}
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		return nil, &EmptyCandidateSetError{Filters: filters, Considered: len(candidates)}
	}
	return kept, nil
}

func (e *Engine) extractMetrics(task models.TaskType, records []models.Record) []rawMetrics {
	cols := columnsFor(task)
	metrics := make([]rawMetrics, len(records))
	for i, r := range records {
		name, q := selectQuality(r, cols)
		metrics[i] = rawMetrics{
			qualityColumn: name,
			quality:       q,
			throughput:    r.OutputTokensPerS,
			ttft:          r.TTFTSeconds,
			price:         r.PriceInputPer1M,
		}
	}
	return metrics
}

// normalizeMetrics min-max scales each metric across the candidate set.
// Latency and price are inverted so that higher is always better. Absent
// values are filled from the missing policy per component.
func (e *Engine) normalizeMetrics(metrics []rawMetrics, policy models.MissingPolicy) []normalizedMetrics {
	var qualityB, throughputB, ttftB, priceB bounds
	for _, m := range metrics {
		qualityB.add(m.quality)
		throughputB.add(m.throughput)
		ttftB.add(m.ttft)
		priceB.add(m.price)
	}

	fill := policy.Fill()
	result := make([]normalizedMetrics, len(metrics))
	for i, m := range metrics {
		var n normalizedMetrics
		n.quality = normalizeHigherBetter(m.quality, qualityB, fill, qualityMetric, &n.imputed)
		n.throughput = normalizeHigherBetter(m.throughput, throughputB, fill, models.ColumnOutputTokensPerS, &n.imputed)
		n.latency = normalizeLowerBetter(m.ttft, ttftB, fill, models.ColumnTTFTS, &n.imputed)
		n.cost = normalizeLowerBetter(m.price, priceB, fill, models.ColumnPriceInputPer1M, &n.imputed)
		n.speed = e.throughputShare*n.throughput + e.latencyShare*n.latency
		result[i] = n
	}
	return result
}

func (b *bounds) add(v models.Optional[float64]) {
	x, ok := v.Get()
	if !ok {
		return
	}
	if !b.ok {
		b.min, b.max, b.ok = x, x, true
		return
	}
	b.min = min(b.min, x)
	b.max = max(b.max, x)
}

// normalizeHigherBetter maps a value to 0 to 1 where higher raw values are
// better. A uniform metric maps to 1.0.
func normalizeHigherBetter(v models.Optional[float64], b bounds, fill float64, name string, imputed *[]string) float64 {
	x, ok := v.Get()
	if !ok {
		*imputed = append(*imputed, name)
		return fill
	}
	if b.max == b.min {
		return 1.0
	}
	return (x - b.min) / (b.max - b.min)
}

// normalizeLowerBetter maps a value to 0 to 1 where lower raw values are
// better. A uniform metric maps to 1.0.
func normalizeLowerBetter(v models.Optional[float64], b bounds, fill float64, name string, imputed *[]string) float64 {
	x, ok := v.Get()
	if !ok {
		*imputed = append(*imputed, name)
		return fill
	}
	if b.max == b.min {
		return 1.0
	}
	return 1 - (x-b.min)/(b.max-b.min)
}

func buildJustification(profile models.TaskProfile, m rawMetrics, n normalizedMetrics) string {
	var sb strings.Builder
	if q, ok := m.quality.Get(); ok {
		fmt.Fprintf(&sb, "%s quality from %s = %.2f (normalized %.2f)", profile.TaskType, m.qualityColumn, q, n.quality)
	} else {
		fmt.Fprintf(&sb, "no %s quality metric reported (normalized %.2f by %s policy)", profile.TaskType, n.quality, profile.MissingPolicy)
	}
	fmt.Fprintf(&sb, "; speed %.2f; cost-fit %.2f", n.speed, n.cost)
	fmt.Fprintf(&sb, "; weights quality %.2f, speed %.2f, cost %.2f", profile.WeightQuality, profile.WeightSpeed, profile.WeightCost)

	var missing []string
	for _, name := range n.imputed {
		if name != qualityMetric {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "; missing %s filled by %s policy", strings.Join(missing, ", "), profile.MissingPolicy)
	}
	return sb.String()
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

package engine

import (
	"math"
	"sort"

	"readiness/internal/schema"
)

// sectionAccum collects one section's weighted numerator/denominator over
// its scored questions plus the progress and flag counters. Excluded
// questions (na_system, hidden, pending, null-scored) contribute to
// neither num nor den, so the average renormalizes automatically.
type sectionAccum struct {
	num      float64
	den      float64
	total    int
	answered int
	review   int
}

func (a *sectionAccum) add(weight int, score float64) {
	a.num += float64(weight) * score
	a.den += float64(weight)
}

// score returns the section's weighted average in [0,1], or false when no
// question was scored.
func (a *sectionAccum) score() (float64, bool) {
	if a.den == 0 {
		return 0, false
	}
	return a.num / a.den, true
}

// aggregate rolls section accumulators up into section, dimension, and
// overall percentages. Sections with no scored questions are excluded
// from their dimension, and dimensions with no scored sections from the
// overall, renormalizing by the remaining weight at each level. Each
// dimension weighs into the overall by the summed weight of its scored
// sections.
func aggregate(s *schema.Schema, accums map[string]*sectionAccum) ([]SectionScore, []DimensionScore, float64) {
	type dimAccum struct {
		num float64
		den float64
	}
	dims := make(map[string]*dimAccum, len(s.Dimensions))
	for _, d := range s.Dimensions {
		dims[d.ID] = &dimAccum{}
	}

	sections := make([]SectionScore, 0, len(s.Sections))
	for _, sec := range s.Sections {
		acc := accums[sec.ID]
		ss := SectionScore{
			ID:                sec.ID,
			Label:             sec.Label,
			QuestionsTotal:    acc.total,
			QuestionsAnswered: acc.answered,
			ReviewCount:       acc.review,
		}
		if fraction, ok := acc.score(); ok {
			pct := roundScore(fraction * 100)
			ss.Score = &pct
			d := dims[sec.Dimension]
			d.num += sec.Weight * fraction
			d.den += sec.Weight
		}
		sections = append(sections, ss)
	}

	var overallNum, overallDen float64
	dimensions := make([]DimensionScore, 0, len(s.Dimensions))
	for _, dim := range s.Dimensions {
		d := dims[dim.ID]
		ds := DimensionScore{ID: dim.ID, Label: dim.Label}
		if d.den > 0 {
			pct := roundScore(d.num / d.den * 100)
			ds.Score = &pct
			overallNum += d.num
			overallDen += d.den
		}
		dimensions = append(dimensions, ds)
	}

	var overall float64
	if overallDen > 0 {
		overall = roundScore(overallNum / overallDen * 100)
	}
	return sections, dimensions, overall
}

// bandFor classifies an overall score. The score is rounded half-up to
// the bands' resolution and bands are scanned from the top, so a value on
// a shared boundary lands in the higher band. Exhaustive coverage of
// [0,100] is guaranteed by schema validation.
func bandFor(bands []schema.Band, overall float64) string {
	sorted := make([]schema.Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	rounded := math.Round(overall)
	for _, b := range sorted {
		if rounded >= b.Min {
			return b.Label
		}
	}
	return sorted[len(sorted)-1].Label
}

// roundScore keeps reported percentages at one decimal place.
func roundScore(pct float64) float64 {
	return math.Round(pct*10) / 10
}

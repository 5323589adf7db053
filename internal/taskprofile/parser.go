// Package taskprofile turns a free-text request into a TaskProfile using
// fixed keyword tables. Parsing never fails and never touches storage.
package taskprofile

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/spboyer/modelrank/internal/models"
	"golang.org/x/text/cases"
)

// Overrides are explicit constraints from the caller. Non-nil fields win
// over anything parsed from the text.
type Overrides struct {
	MaxPricePer1M     *float64
	MinContext        *int64
	ProviderAllowlist []string
	MissingPolicy     *models.MissingPolicy
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([0-9]+(?:\.[0-9]+)?)\s*(?:/|per)\s*(?:1\s*m(?:tok)?\b|1\s*million\b|million\b|mtok\b)`),
	regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:/|per)\s*(?:1\s*m(?:tok)?\b|1\s*million\b|million\b|mtok\b)`),
}

// Parse builds a fully populated profile from text and overrides.
func Parse(text string, o Overrides) models.TaskProfile {
	in := tokenize(text)

	task := detectTask(in)
	w := adjust(baseWeights[task], in)

	p := models.TaskProfile{
		TaskType:      task,
		WeightQuality: w.quality,
		WeightSpeed:   w.speed,
		WeightCost:    w.cost,
		MaxPricePer1M: extractBudget(in.raw),
		MissingPolicy: models.MissingPenalize,
	}

	if o.MaxPricePer1M != nil {
		v := *o.MaxPricePer1M
		p.MaxPricePer1M = &v
	}
	if o.MinContext != nil {
		v := *o.MinContext
		p.MinContext = &v
	}
	if len(o.ProviderAllowlist) > 0 {
		p.ProviderAllowlist = foldProviders(o.ProviderAllowlist)
	}
	if o.MissingPolicy != nil {
		p.MissingPolicy = *o.MissingPolicy
	}
	return p
}

// ParseProviderList splits a comma-separated provider list. Blank entries
// are dropped; an empty result is nil.
func ParseProviderList(csv string) []string {
	return foldProviders(strings.Split(csv, ","))
}

// ParseMissingPolicy parses "penalize" or "neutral", case-insensitively.
func ParseMissingPolicy(s string) (models.MissingPolicy, error) {
	p := models.MissingPolicy(strings.ToLower(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// FoldProvider is the form providers are compared in.
func FoldProvider(provider string) string {
	return cases.Fold().String(strings.TrimSpace(provider))
}

// input is a request split two ways: the case-folded text with whitespace
// collapsed, and its letter/digit tokens joined by single spaces with a space
// at each end.
type input struct {
	raw    string
	tokens string
}

func tokenize(text string) input {
	folded := cases.Fold().String(text)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return input{
		raw:    strings.Join(strings.Fields(folded), " "),
		tokens: " " + strings.Join(words, " ") + " ",
	}
}

// has reports whether any phrase occurs as a run of whole tokens.
func (in input) has(phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(in.tokens, " "+p+" ") {
			return true
		}
	}
	return false
}

func (in input) hasRaw(markers []string) bool {
	for _, m := range markers {
		if strings.Contains(in.raw, m) {
			return true
		}
	}
	return false
}

func detectTask(in input) models.TaskType {
	for _, row := range taskTable {
		if in.has(row.keywords) {
			return row.task
		}
	}
	return models.TaskGeneral
}

// adjust applies the phrase boosts, clamps at zero and renormalizes. If
// everything clamps away the base weights are kept.
func adjust(base weights, in input) weights {
	w := base
	changed := false
	if in.has(qualityPhrases) {
		w.quality += boost
		w.speed -= penalty
		w.cost -= penalty
		changed = true
	}
	if in.has(speedPhrases) {
		w.speed += boost
		w.quality -= penalty
		w.cost -= penalty
		changed = true
	}
	if in.has(costPhrases) || in.hasRaw(currencyMarkers) {
		w.cost += boost
		w.quality -= penalty
		w.speed -= penalty
		changed = true
	}
	if !changed {
		return base
	}

	w.quality = max(w.quality, 0)
	w.speed = max(w.speed, 0)
	w.cost = max(w.cost, 0)
	total := w.quality + w.speed + w.cost
	if total < 1e-9 {
		return base
	}
	return weights{
		quality: round(w.quality / total),
		speed:   round(w.speed / total),
		cost:    round(w.cost / total),
	}
}

func extractBudget(text string) *float64 {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

func foldProviders(in []string) []string {
	var out []string
	for _, p := range in {
		p = FoldProvider(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// round trims float noise from the renormalized weights.
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

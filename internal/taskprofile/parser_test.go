package taskprofile

import (
	"testing"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(p models.TaskProfile) float64 {
	return p.WeightQuality + p.WeightSpeed + p.WeightCost
}

func TestParse_PythonDebuggingOnABudget(t *testing.T) {
	p := Parse("I need a model for python debugging, prefer quality, budget $5/1M tokens", Overrides{})

	assert.Equal(t, models.TaskCoding, p.TaskType)
	assert.Greater(t, p.WeightCost, baseWeights[models.TaskCoding].cost)
	assert.InDelta(t, 1.0, sum(p), 1e-6)
	require.NotNil(t, p.MaxPricePer1M)
	assert.InDelta(t, 5.0, *p.MaxPricePer1M, 1e-9)
	assert.Equal(t, models.MissingPenalize, p.MissingPolicy)
	assert.Nil(t, p.MinContext)
	assert.Nil(t, p.ProviderAllowlist)
}

func TestParse_TaskDetection(t *testing.T) {
	tests := []struct {
		text string
		want models.TaskType
	}{
		{"Refactor this Go service", models.TaskCoding},
		{"prove this THEOREM", models.TaskMath},
		{"logic puzzles", models.TaskReasoning},
		{"write a blog post", models.TaskWriting},
		{"an autonomous agent with tool use", models.TaskAgent},
		{"chat with me", models.TaskGeneral},
		{"", models.TaskGeneral},
		// Table order decides between types.
		{"write python code", models.TaskCoding},
		{"math reasoning", models.TaskMath},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text, Overrides{}).TaskType)
		})
	}
}

func TestParse_KeywordsMatchWholeTokens(t *testing.T) {
	tests := []struct {
		text string
		want models.TaskType
	}{
		{"write a blog post about aftermath of storms", models.TaskWriting},
		{"draft a reasonably priced marketing email", models.TaskWriting},
		{"decode base64 strings in an essay", models.TaskWriting},
		{"a bugle fanfare", models.TaskGeneral},
		{"tools used in gardening", models.TaskGeneral},
		{"the agency's contents", models.TaskGeneral},
		// Punctuation splits tokens.
		{"debugging/refactoring", models.TaskCoding},
		{"tool-use heavy pipeline", models.TaskAgent},
		{"TOOL   USE", models.TaskAgent},
		{"(math)", models.TaskMath},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text, Overrides{}).TaskType)
		})
	}
}

func TestParse_WeightPhrasesMatchWholeTokens(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		signal bool
	}{
		{"fastidious is not fast", "a fastidious chatbot", false},
		{"bestow is not best", "bestow a chatbot", false},
		{"costume is not cost", "costume chatbot", false},
		{"hyphenated real-time", "real-time chatbot", true},
		{"currency marker", "chatbot under $5", true},
		{"euro marker", "chatbot for €2", true},
	}

	base := baseWeights[models.TaskGeneral]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adjust(base, tokenize(tt.text))
			if tt.signal {
				assert.NotEqual(t, base, got)
			} else {
				assert.Equal(t, base, got)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	in := tokenize("  Fast, CHEAP  tool-use  under $5/1M ")
	assert.Equal(t, " fast cheap tool use under 5 1m ", in.tokens)
	assert.Equal(t, "fast, cheap tool-use under $5/1m", in.raw)

	empty := tokenize("")
	assert.False(t, empty.has([]string{"code"}))
}

func TestParse_BaseWeightsWithoutSignals(t *testing.T) {
	for task, w := range baseWeights {
		t.Run(string(task), func(t *testing.T) {
			got := adjust(w, tokenize("nothing to see here"))
			assert.Equal(t, w, got)
		})
	}
}

func TestParse_WeightAdjustments(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		quality float64
		speed   float64
		cost    float64
	}{
		{"quality", "the best chatbot", 0.7, 0.15, 0.15},
		{"speed", "fast chatbot", 0.4, 0.45, 0.15},
		{"cost", "cheap chatbot", 0.4, 0.15, 0.45},
		{"speed and cost", "fast and cheap chatbot", 0.3, 0.35, 0.35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.text, Overrides{})
			require.Equal(t, models.TaskGeneral, p.TaskType)
			assert.InDelta(t, tt.quality, p.WeightQuality, 1e-6)
			assert.InDelta(t, tt.speed, p.WeightSpeed, 1e-6)
			assert.InDelta(t, tt.cost, p.WeightCost, 1e-6)
			assert.InDelta(t, 1.0, sum(p), 1e-5)
		})
	}
}

func TestParse_NegativeWeightsClampToZero(t *testing.T) {
	// coding: 0.6/0.2/0.2 -> quality 0.8/0.1/0.1 -> cost 0.7/0.0/0.3
	p := Parse("best code, cheap", Overrides{})
	assert.InDelta(t, 0.7, p.WeightQuality, 1e-6)
	assert.InDelta(t, 0.0, p.WeightSpeed, 1e-6)
	assert.InDelta(t, 0.3, p.WeightCost, 1e-6)

	// math speed: 0.7/0.1/0.2 -> 0.6/0.3/0.1, then cost -> 0.5/0.2/0.3
	p = Parse("fast cheap algebra", Overrides{})
	assert.GreaterOrEqual(t, p.WeightSpeed, 0.0)
	assert.InDelta(t, 1.0, sum(p), 1e-5)
}

func TestParse_WeightsAreNeverNegative(t *testing.T) {
	texts := []string{
		"best fast cheap",
		"best quality accurate low latency real-time budget",
		"math proof, fast, $",
	}
	for _, text := range texts {
		p := Parse(text, Overrides{})
		assert.GreaterOrEqual(t, p.WeightQuality, 0.0, text)
		assert.GreaterOrEqual(t, p.WeightSpeed, 0.0, text)
		assert.GreaterOrEqual(t, p.WeightCost, 0.0, text)
		assert.InDelta(t, 1.0, sum(p), 1e-5, text)
	}
}

func TestAdjust_AllZeroFallsBackToBase(t *testing.T) {
	base := weights{}
	// Every boost is cancelled by two penalties; nothing is left to scale.
	assert.Equal(t, base, adjust(base, tokenize("best fast cheap")))
}

func TestParse_BudgetExtraction(t *testing.T) {
	tests := []struct {
		text string
		want *float64
	}{
		{"under $5/1M", ptr(5.0)},
		{"at most $0.25 per 1m tokens", ptr(0.25)},
		{"$3 / 1 million", ptr(3.0)},
		{"$2 per million", ptr(2.0)},
		{"$1.5/MTok", ptr(1.5)},
		{"10 per 1M tokens", ptr(10.0)},
		{"costs $5 total", nil},
		{"a 128k context", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Parse(tt.text, Overrides{}).MaxPricePer1M
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParse_OverridesWin(t *testing.T) {
	neutral := models.MissingNeutral
	o := Overrides{
		MaxPricePer1M:     ptr(1.0),
		MinContext:        ptr(int64(100000)),
		ProviderAllowlist: []string{" Meta ", "OpenAI", "meta", ""},
		MissingPolicy:     &neutral,
	}

	p := Parse("coding on a budget $5/1M", o)
	require.NotNil(t, p.MaxPricePer1M)
	assert.Equal(t, 1.0, *p.MaxPricePer1M)
	require.NotNil(t, p.MinContext)
	assert.Equal(t, int64(100000), *p.MinContext)
	assert.Equal(t, []string{"meta", "openai"}, p.ProviderAllowlist)
	assert.Equal(t, models.MissingNeutral, p.MissingPolicy)

	// The profile owns its copies.
	*o.MaxPricePer1M = 99
	assert.Equal(t, 1.0, *p.MaxPricePer1M)
}

func TestParse_Deterministic(t *testing.T) {
	text := "Fast, cheap TypeScript refactoring under $2 per 1M"
	assert.Equal(t, Parse(text, Overrides{}), Parse(text, Overrides{}))
}

func TestParseProviderList(t *testing.T) {
	assert.Equal(t, []string{"meta", "mistral"}, ParseProviderList("Meta, MISTRAL ,,meta"))
	assert.Nil(t, ParseProviderList(""))
	assert.Nil(t, ParseProviderList(" , "))
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy(" Neutral ")
	require.NoError(t, err)
	assert.Equal(t, models.MissingNeutral, p)

	p, err = ParseMissingPolicy("penalize")
	require.NoError(t, err)
	assert.Equal(t, models.MissingPenalize, p)

	_, err = ParseMissingPolicy("ignore")
	require.Error(t, err)
}

func ptr[T any](v T) *T { return &v }

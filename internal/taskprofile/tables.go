package taskprofile

import "github.com/spboyer/modelrank/internal/models"

type taskKeywords struct {
	task     models.TaskType
	keywords []string
}

// taskTable is checked in order; the first task with a matching keyword wins.
// Keywords match whole tokens, so inflections are listed explicitly.
// Multi-word entries match consecutive tokens.
var taskTable = []taskKeywords{
	{models.TaskCoding, []string{
		"code", "codes", "coding", "coder",
		"python", "javascript", "typescript", "golang", "sql",
		"debug", "debugs", "debugging", "debugger",
		"program", "programs", "programming", "programmer",
		"refactor", "refactors", "refactoring",
		"bug", "bugs",
	}},
	{models.TaskMath, []string{
		"math", "maths", "mathematics", "mathematical",
		"algebra", "calculus", "arithmetic",
		"theorem", "theorems", "equation", "equations",
		"proof", "proofs", "prove",
	}},
	{models.TaskReasoning, []string{
		"reason", "reasoning", "logic", "logical",
		"analysis", "analyze", "analyse", "analyzing", "analysing",
		"decision", "decisions",
	}},
	{models.TaskWriting, []string{
		"write", "writes", "writing", "written",
		"copy", "copywriting", "content",
		"email", "emails", "blog", "blogs", "essay", "essays",
		"summarize", "summarise", "summary",
		"translate", "translation",
	}},
	{models.TaskAgent, []string{
		"agent", "agents", "agentic", "autonomous",
		"tool use", "tool calling", "function calling",
		"workflow", "workflows",
	}},
}

type weights struct {
	quality, speed, cost float64
}

var baseWeights = map[models.TaskType]weights{
	models.TaskCoding:    {0.6, 0.2, 0.2},
	models.TaskMath:      {0.7, 0.1, 0.2},
	models.TaskReasoning: {0.65, 0.15, 0.2},
	models.TaskWriting:   {0.5, 0.25, 0.25},
	models.TaskAgent:     {0.5, 0.3, 0.2},
	models.TaskGeneral:   {0.5, 0.25, 0.25},
}

var (
	qualityPhrases = []string{"quality", "accuracy", "accurate", "best"}
	speedPhrases   = []string{"fast", "faster", "fastest", "quick", "quickly", "speed", "latency", "low latency", "real time", "realtime"}
	costPhrases    = []string{"cheap", "cheaper", "cheapest", "budget", "cost", "costs", "inexpensive", "affordable", "usd"}

	// currencyMarkers are matched against the raw text since tokenizing
	// drops them.
	currencyMarkers = []string{"$", "€", "£"}
)

const (
	boost   = 0.2
	penalty = 0.1
)

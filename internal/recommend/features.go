package recommend

import "github.com/spboyer/modelrank/internal/models"

// column names a record field and reads it.
type column struct {
	name string
	get  func(models.Record) models.Optional[float64]
}

var (
	colQuality   = column{models.ColumnQualityIndex, func(r models.Record) models.Optional[float64] { return r.QualityIndex }}
	colCoding    = column{models.ColumnCodingIndex, func(r models.Record) models.Optional[float64] { return r.CodingIndex }}
	colMath      = column{models.ColumnMathIndex, func(r models.Record) models.Optional[float64] { return r.MathIndex }}
	colReasoning = column{models.ColumnReasoningIndex, func(r models.Record) models.Optional[float64] { return r.ReasoningIndex }}
)

// qualityColumns lists, per task type, the columns a quality signal is taken
// from, most specific first.
var qualityColumns = map[models.TaskType][]column{
	models.TaskCoding:    {colCoding, colQuality, colReasoning},
	models.TaskMath:      {colMath, colReasoning, colQuality},
	models.TaskReasoning: {colReasoning, colQuality},
	models.TaskWriting:   {colQuality, colReasoning},
	models.TaskAgent:     {colReasoning, colCoding, colQuality},
	models.TaskGeneral:   {colQuality, colReasoning, colCoding, colMath},
}

func columnsFor(task models.TaskType) []column {
	if cols, ok := qualityColumns[task]; ok {
		return cols
	}
	return qualityColumns[models.TaskGeneral]
}

// QualityColumns returns the preference order of quality columns for a task.
func QualityColumns(task models.TaskType) []string {
	cols := columnsFor(task)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// selectQuality returns the first present column for r. The name is empty
// and the value absent when none is present.
func selectQuality(r models.Record, cols []column) (string, models.Optional[float64]) {
	for _, c := range cols {
		if v := c.get(r); v.Present() {
			return c.name, v
		}
	}
	return "", models.Optional[float64]{}
}

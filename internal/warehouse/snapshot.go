package warehouse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spboyer/modelrank/internal/models"
)

const snapshotFormat = "modelrank.snapshot.v1"

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// snapshotFile is the on-disk layout of one snapshot: a header plus one
// array per canonical column, all of length Rows.
type snapshotFile struct {
	Format     string          `json:"format"`
	SnapshotID string          `json:"snapshot_id"`
	Source     string          `json:"source"`
	SnapshotTS time.Time       `json:"snapshot_ts"`
	Rows       int             `json:"rows"`
	Columns    snapshotColumns `json:"columns"`
}

type snapshotColumns struct {
	CanonicalKey     []string                   `json:"canonical_model_key"`
	ModelName        []string                   `json:"model_name"`
	Provider         []string                   `json:"provider"`
	QualityIndex     []models.Optional[float64] `json:"quality_index"`
	CodingIndex      []models.Optional[float64] `json:"coding_index"`
	MathIndex        []models.Optional[float64] `json:"math_index"`
	ReasoningIndex   []models.Optional[float64] `json:"reasoning_index"`
	OutputTokensPerS []models.Optional[float64] `json:"output_tokens_per_s"`
	TTFTSeconds      []models.Optional[float64] `json:"ttft_s"`
	PriceInputPer1M  []models.Optional[float64] `json:"price_input_per_1m"`
	PriceOutputPer1M []models.Optional[float64] `json:"price_output_per_1m"`
	ContextWindow    []models.Optional[int64]   `json:"context_window"`
	IsOpenSource     []*bool                    `json:"is_open_source"`
	License          []string                   `json:"license"`
}

func encodeSnapshot(id, source string, ts time.Time, records []models.Record) ([]byte, error) {
	n := len(records)
	f := snapshotFile{
		Format:     snapshotFormat,
		SnapshotID: id,
		Source:     source,
		SnapshotTS: ts.UTC(),
		Rows:       n,
		Columns: snapshotColumns{
			CanonicalKey:     make([]string, n),
			ModelName:        make([]string, n),
			Provider:         make([]string, n),
			QualityIndex:     make([]models.Optional[float64], n),
			CodingIndex:      make([]models.Optional[float64], n),
			MathIndex:        make([]models.Optional[float64], n),
			ReasoningIndex:   make([]models.Optional[float64], n),
			OutputTokensPerS: make([]models.Optional[float64], n),
			TTFTSeconds:      make([]models.Optional[float64], n),
			PriceInputPer1M:  make([]models.Optional[float64], n),
			PriceOutputPer1M: make([]models.Optional[float64], n),
			ContextWindow:    make([]models.Optional[int64], n),
			IsOpenSource:     make([]*bool, n),
			License:          make([]string, n),
		},
	}

	c := &f.Columns
	for i, r := range records {
		c.CanonicalKey[i] = r.CanonicalKey
		c.ModelName[i] = r.ModelName
		c.Provider[i] = r.Provider
		c.QualityIndex[i] = r.QualityIndex
		c.CodingIndex[i] = r.CodingIndex
		c.MathIndex[i] = r.MathIndex
		c.ReasoningIndex[i] = r.ReasoningIndex
		c.OutputTokensPerS[i] = r.OutputTokensPerS
		c.TTFTSeconds[i] = r.TTFTSeconds
		c.PriceInputPer1M[i] = r.PriceInputPer1M
		c.PriceOutputPer1M[i] = r.PriceOutputPer1M
		c.ContextWindow[i] = r.ContextWindow
		c.IsOpenSource[i] = r.IsOpenSource
		c.License[i] = r.License
	}

	data, err := json.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	return zstdEncoder.EncodeAll(data, nil), nil
}

func decodeSnapshot(compressed []byte) (*snapshotFile, []models.Record, error) {
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing snapshot: %w", err)
	}

	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if f.Format != snapshotFormat {
		return nil, nil, fmt.Errorf("unsupported snapshot format %q", f.Format)
	}

	c := &f.Columns
	lengths := []int{
		len(c.CanonicalKey), len(c.ModelName), len(c.Provider),
		len(c.QualityIndex), len(c.CodingIndex), len(c.MathIndex), len(c.ReasoningIndex),
		len(c.OutputTokensPerS), len(c.TTFTSeconds), len(c.PriceInputPer1M), len(c.PriceOutputPer1M),
		len(c.ContextWindow), len(c.IsOpenSource), len(c.License),
	}
	for _, l := range lengths {
		if l != f.Rows {
			return nil, nil, fmt.Errorf("corrupt snapshot %s: column length %d, want %d", f.SnapshotID, l, f.Rows)
		}
	}

	ts := f.SnapshotTS.UTC()
	records := make([]models.Record, f.Rows)
	for i := range records {
		records[i] = models.Record{
			CanonicalKey:     c.CanonicalKey[i],
			ModelName:        c.ModelName[i],
			Provider:         c.Provider[i],
			QualityIndex:     c.QualityIndex[i],
			CodingIndex:      c.CodingIndex[i],
			MathIndex:        c.MathIndex[i],
			ReasoningIndex:   c.ReasoningIndex[i],
			OutputTokensPerS: c.OutputTokensPerS[i],
			TTFTSeconds:      c.TTFTSeconds[i],
			PriceInputPer1M:  c.PriceInputPer1M[i],
			PriceOutputPer1M: c.PriceOutputPer1M[i],
			ContextWindow:    c.ContextWindow[i],
			IsOpenSource:     c.IsOpenSource[i],
			License:          c.License[i],
			Source:           f.Source,
			SnapshotTS:       ts,
		}
	}
	return &f, records, nil
}

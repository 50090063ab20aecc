package model

import "math"

// AlertRecord is the per-symbol result of one run. It is created once and never mutated.
type AlertRecord struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name,omitempty"`
	IndicatorVector
	PercentDifferences map[int]float64 `json:"percent_differences"`
	Highlighted        bool            `json:"highlighted"`
}

// NewAlertRecord builds a record from a complete vector. Percent differences are
// computed only for the windows present in the vector.
func NewAlertRecord(item WatchItem, vec IndicatorVector, highlighted bool) AlertRecord {
	diffs := make(map[int]float64, len(vec.MovingAverages))
	for w, avg := range vec.MovingAverages {
		diffs[w] = PercentDifference(vec.CurrentPrice, avg)
	}
	return AlertRecord{
		Symbol:             item.Symbol,
		CompanyName:        item.CompanyName,
		IndicatorVector:    vec,
		PercentDifferences: diffs,
		Highlighted:        highlighted,
	}
}

// PercentDifference returns the deviation of price from avg in percent.
func PercentDifference(price, avg float64) float64 {
	if avg == 0 {
		return math.NaN()
	}
	return (price - avg) / avg * 100
}

// Valid reports whether the record carries no NaN or infinite numbers.
func (r *AlertRecord) Valid() bool {
	if !r.IndicatorVector.Finite() {
		return false
	}
	for _, d := range r.PercentDifferences {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}
	return true
}

// Snapshot is the ordered result of one run, in watch-list order.
type Snapshot struct {
	RunID   string
	Records []AlertRecord
}

// Highlighted returns the highlighted records in snapshot order.
func (s *Snapshot) Highlighted() []AlertRecord {
	var out []AlertRecord
	for _, r := range s.Records {
		if r.Highlighted {
			out = append(out, r)
		}
	}
	return out
}

// Symbols returns the record symbols in snapshot order.
func (s *Snapshot) Symbols() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Symbol
	}
	return out
}

// SkipReason explains why a symbol is absent from a snapshot.
type SkipReason string

const (
	SkipFetchFailed      SkipReason = "FETCH_FAILED"
	SkipNoData           SkipReason = "NO_DATA"
	SkipInsufficientData SkipReason = "INSUFFICIENT_DATA"
	SkipUndefined        SkipReason = "UNDEFINED_INDICATOR"
	SkipInvalidSeries    SkipReason = "INVALID_SERIES"
	SkipDuplicate        SkipReason = "DUPLICATE"
)

// Skip records a symbol that produced no alert record.
type Skip struct {
	Symbol string
	Reason SkipReason
	Err    error
}

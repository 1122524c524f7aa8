package dataprocessing

import (
	"math"
	"sort"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
)

// Bounds is a closed numeric interval
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies within the bounds, inclusive
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks. values need not be sorted. It reports false for an
// empty input.
func Quantile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q), true
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Median returns the 0.5 quantile
func Median(values []float64) (float64, bool) {
	return Quantile(values, 0.5)
}

// IQRBounds computes [Q1 - k*IQR, Q3 + k*IQR] over the present values
func IQRBounds(s *table.Series[float64], k float64) (Bounds, bool) {
	present := s.Present()
	if len(present) == 0 {
		return Bounds{}, false
	}
	sort.Float64s(present)
	q1 := quantileSorted(present, 0.25)
	q3 := quantileSorted(present, 0.75)
	iqr := q3 - q1
	return Bounds{Lower: q1 - k*iqr, Upper: q3 + k*iqr}, true
}

// OutlierFlags marks values strictly outside the IQR fences. Nulls are never outliers.
func OutlierFlags(s *table.Series[float64], k float64, name string) (*table.Series[bool], *Bounds) {
	flags := make([]bool, s.Len())
	bounds, ok := IQRBounds(s, k)
	if !ok {
		return table.NewSeries(name, flags, nil), nil
	}
	for i := range flags {
		if v, present := s.At(i); present {
			flags[i] = !bounds.Contains(v)
		}
	}
	return table.NewSeries(name, flags, nil), &bounds
}

// WinsorBounds returns the lo and hi quantiles of the present values
func WinsorBounds(s *table.Series[float64], lo, hi float64) (Bounds, bool) {
	present := s.Present()
	if len(present) == 0 {
		return Bounds{}, false
	}
	sort.Float64s(present)
	return Bounds{Lower: quantileSorted(present, lo), Upper: quantileSorted(present, hi)}, true
}

// Winsorize clips present values to the lo and hi quantiles. Nulls stay null
// and an all-null series is returned unchanged under the new name.
func Winsorize(s *table.Series[float64], lo, hi float64, name string) (*table.Series[float64], *Bounds) {
	bounds, ok := WinsorBounds(s, lo, hi)
	if !ok {
		return table.Map(s, name, func(v float64) (float64, bool) { return v, true }), nil
	}
	clipped := table.Map(s, name, func(v float64) (float64, bool) {
		return math.Min(math.Max(v, bounds.Lower), bounds.Upper), true
	})
	return clipped, &bounds
}

// OutlierReport holds the bounds applied by AddOutlierColumns
type OutlierReport struct {
	IQR     *Bounds
	Winsor  *Bounds
	Flagged int
}

// AddOutlierColumns adds <col>__is_outlier (IQR fences, multiplier k) and
// <col>_winsor (clipped to the lo/hi quantiles) for a float column.
func AddOutlierColumns(frame *table.Frame, column string, k, lo, hi float64) (*table.Frame, OutlierReport, error) {
	s, err := table.Get[float64](frame, column)
	if err != nil {
		return nil, OutlierReport{}, err
	}

	flags, iqr := OutlierFlags(s, k, column+config.OutlierSuffix)
	winsor, wb := Winsorize(s, lo, hi, column+config.WinsorSuffix)

	report := OutlierReport{IQR: iqr, Winsor: wb}
	for _, f := range flags.Present() {
		if f {
			report.Flagged++
		}
	}

	return frame.MustWith(winsor, flags), report, nil
}

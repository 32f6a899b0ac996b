package engine

// ============================================================================
// REDUCERS — Add/remove/initialise triplets for common aggregates
// ============================================================================

// CountReducer counts records.
func CountReducer[T any]() Reducer[T, int] {
	return Reducer[T, int]{
		Add:    func(p int, _ T) int { return p + 1 },
		Remove: func(p int, _ T) int { return p - 1 },
		Init:   func() int { return 0 },
	}
}

// SumOf sums value over records.
func SumOf[T any](value func(T) float64) Reducer[T, float64] {
	return Reducer[T, float64]{
		Add:    func(p float64, v T) float64 { return p + value(v) },
		Remove: func(p float64, v T) float64 { return p - value(v) },
		Init:   func() float64 { return 0 },
	}
}

// Average is a running count, total and mean.
type Average struct {
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

// OrderValue ranks averages by their mean.
func (a Average) OrderValue() float64 { return a.Average }

// AverageOf keeps a running mean of value.
// Removing the last record resets the accumulator so the mean never divides by zero.
func AverageOf[T any](value func(T) float64) Reducer[T, Average] {
	return Reducer[T, Average]{
		Add: func(p Average, v T) Average {
			p.Count++
			p.Total += value(v)
			p.Average = p.Total / float64(p.Count)
			return p
		},
		Remove: func(p Average, v T) Average {
			p.Count--
			if p.Count == 0 {
				p.Total = 0
				p.Average = 0
				return p
			}
			p.Total -= value(v)
			p.Average = p.Total / float64(p.Count)
			return p
		},
		Init: func() Average { return Average{} },
	}
}

// Ratio counts matching records against a total.
type Ratio struct {
	Total int `json:"total"`
	Match int `json:"match"`
}

// Fraction returns Match/Total, or 0 when Total is 0.
func (r Ratio) Fraction() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Match) / float64(r.Total)
}

// OrderValue ranks ratios by their fraction.
func (r Ratio) OrderValue() float64 { return r.Fraction() }

// MatchOf counts every record in Total and those satisfying match in Match.
func MatchOf[T any](match func(T) bool) Reducer[T, Ratio] {
	return RatioOf(func(T) bool { return true }, match)
}

// RatioOf counts records satisfying in toward Total, and those also
// satisfying match toward Match.
func RatioOf[T any](in, match func(T) bool) Reducer[T, Ratio] {
	return Reducer[T, Ratio]{
		Add: func(p Ratio, v T) Ratio {
			if in(v) {
				p.Total++
				if match(v) {
					p.Match++
				}
			}
			return p
		},
		Remove: func(p Ratio, v T) Ratio {
			if in(v) {
				p.Total--
				if match(v) {
					p.Match--
				}
			}
			return p
		},
		Init: func() Ratio { return Ratio{} },
	}
}

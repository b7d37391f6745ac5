package models

// Series is the selected column coerced to numbers: ordered (year, value) pairs with
// no missing or non-finite values.
type Series struct {
	Name   string    `json:"name" msgpack:"name"`
	Years  []int     `json:"years" msgpack:"years"`
	Values []float64 `json:"values" msgpack:"values"`
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Span returns the first and last year of the series.
func (s *Series) Span() (first, last int, ok bool) {
	if s.Len() == 0 {
		return 0, 0, false
	}
	return s.Years[0], s.Years[len(s.Years)-1], true
}

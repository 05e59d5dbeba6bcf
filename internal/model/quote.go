package model

import "math"

// Quote is the normalized stock-price record produced by a source adapter
// and published to the message queue. A Quote is either fully valid or it
// is discarded before reaching the queue; it has no identity or persistence.
type Quote struct {
	Symbol    string             `json:"symbol" validate:"required,alpha"`
	Timestamp string             `json:"timestamp" validate:"required"` // RFC 3339 UTC
	Price     float64            `json:"price" validate:"gte=0"`
	Source    string             `json:"source" validate:"required"`
	Data      map[string]float64 `json:"data" validate:"required,dive,gte=0"`
}

// Volume returns the traded volume from the data map. The second return
// value is false when the volume field is absent or not an integral value.
func (q Quote) Volume() (int64, bool) {
	v, ok := q.Data["volume"]
	if !ok {
		return 0, false
	}
	if v != math.Trunc(v) || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int64(v), true
}

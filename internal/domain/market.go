package domain

// MarketFigures holds externally supplied market data for one token.
// Every numeric field is nullable: nil means the source did not provide it.
// Corresponds to market_snapshots table in ClickHouse (raw fields only).
type MarketFigures struct {
	Symbol     string `json:"symbol"`
	Source     string `json:"source,omitempty"` // which market source produced the figures
	ObservedAt int64  `json:"observed_at"`      // when figures were observed (ms)

	Price     *float64 `json:"price"`
	Change24h *float64 `json:"change_24h"` // percent
	Change7d  *float64 `json:"change_7d"`  // percent
	Change30d *float64 `json:"change_30d"` // percent
	MarketCap *float64 `json:"market_cap"`
	Volume24h *float64 `json:"volume_24h"`

	// Derived indicators (see market.Derive).
	RSI               *float64 `json:"rsi"`
	MovingAverage50d  *float64 `json:"ma_50d"`
	MovingAverage200d *float64 `json:"ma_200d"`
	Support1          *float64 `json:"support_1"`
	Support2          *float64 `json:"support_2"`
	Resistance1       *float64 `json:"resistance_1"`
	Resistance2       *float64 `json:"resistance_2"`
}

// IsEmpty reports whether no raw figure is present.
func (f *MarketFigures) IsEmpty() bool {
	return f == nil || (f.Price == nil && f.Change24h == nil && f.Change7d == nil &&
		f.Change30d == nil && f.MarketCap == nil && f.Volume24h == nil)
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

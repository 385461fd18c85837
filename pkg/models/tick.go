package models

import "time"

// Tick represents a real-time price update for a tracked product.
// Price keeps the exchange's decimal string so output echoes the feed exactly.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     string    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTick creates a new price tick with the current timestamp
func NewTick(symbol, price string) *Tick {
	return &Tick{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now(),
	}
}

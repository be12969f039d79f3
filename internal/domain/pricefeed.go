package domain

import "time"

// PriceQuote is a single pair's latest price as delivered by the feed.
type PriceQuote struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceSnapshot maps pair symbol to its latest quote. The feed delivers
// a fresh snapshot per tick; the core never writes into it.
type PriceSnapshot map[string]PriceQuote

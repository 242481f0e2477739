package domain

import (
	"strings"
	"time"
)

type TradeCode struct {
	Value     string        `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
	Lifetime  time.Duration `json:"lifetime"`
}

func (c TradeCode) ExpiresAt() time.Time {
	return c.CreatedAt.Add(c.Lifetime)
}

// Compact is the clipboard form of the code.
func (c TradeCode) Compact() string {
	return strings.ReplaceAll(c.Value, " ", "")
}

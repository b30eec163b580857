package pricing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Price is either a Computed value or a ManualOverride. Consumers switch on
// the concrete type to tell the two apart.
type Price interface {
	Amount() decimal.Decimal
	isPrice()
}

// Computed is a value derived from order items.
type Computed struct {
	Value decimal.Decimal
}

func (c Computed) Amount() decimal.Decimal { return c.Value }
func (Computed) isPrice()                  {}

func (c Computed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string          `json:"kind"`
		Amount decimal.Decimal `json:"amount"`
	}{"computed", c.Value})
}

// ManualOverride replaces a computed value. Reason and Author are mandatory.
type ManualOverride struct {
	Value  decimal.Decimal
	Reason string
	Author string
	At     time.Time
}

func (o ManualOverride) Amount() decimal.Decimal { return o.Value }
func (ManualOverride) isPrice()                  {}

func (o ManualOverride) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string          `json:"kind"`
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason"`
		Author string          `json:"author"`
		At     time.Time       `json:"at"`
	}{"manual_override", o.Value, o.Reason, o.Author, o.At})
}

// Resolve returns the override when present, the computed value otherwise.
func Resolve(computed decimal.Decimal, override *ManualOverride) Price {
	if override != nil {
		return *override
	}
	return Computed{Value: computed}
}

// IsOverride reports whether p is a manual override.
func IsOverride(p Price) bool {
	_, ok := p.(ManualOverride)
	return ok
}

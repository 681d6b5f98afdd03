package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// unlimitedSentinel is how unlimited stock is written in stored product records.
const unlimitedSentinel = -1

// Stock is either a finite count or unlimited.
type Stock struct {
	count     int
	unlimited bool
}

// FiniteStock returns a stock of n units. Negative counts are clamped to zero.
func FiniteStock(n int) Stock {
	if n < 0 {
		n = 0
	}
	return Stock{count: n}
}

// UnlimitedStock never runs out.
func UnlimitedStock() Stock {
	return Stock{unlimited: true}
}

func (s Stock) Unlimited() bool { return s.unlimited }

// Count is meaningless for unlimited stock.
func (s Stock) Count() int { return s.count }

// Covers reports whether qty units can be supplied.
func (s Stock) Covers(qty int) bool {
	return s.unlimited || qty <= s.count
}

// Available reports whether at least one unit is available.
func (s Stock) Available() bool {
	return s.unlimited || s.count > 0
}

// Take removes qty units, flooring at zero.
func (s Stock) Take(qty int) Stock {
	if s.unlimited {
		return s
	}
	return FiniteStock(s.count - qty)
}

func (s Stock) String() string {
	if s.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", s.count)
}

func (s Stock) MarshalJSON() ([]byte, error) {
	if s.unlimited {
		return json.Marshal(unlimitedSentinel)
	}
	return json.Marshal(s.count)
}

func (s *Stock) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = FiniteStock(0)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	if n == unlimitedSentinel {
		*s = UnlimitedStock()
		return nil
	}
	*s = FiniteStock(n)
	return nil
}

// UseLimit caps how many times a promotional code may be used.
// The zero value is unlimited, and so is a cap of zero or less.
type UseLimit struct {
	max     int
	limited bool
}

func LimitUses(n int) UseLimit {
	if n <= 0 {
		return UnlimitedUses()
	}
	return UseLimit{max: n, limited: true}
}

func UnlimitedUses() UseLimit {
	return UseLimit{}
}

func (l UseLimit) Unlimited() bool { return !l.limited }

func (l UseLimit) Max() int { return l.max }

// Reached reports whether uses has hit the cap.
func (l UseLimit) Reached(uses int) bool {
	return l.limited && uses >= l.max
}

func (l UseLimit) MarshalJSON() ([]byte, error) {
	if !l.limited {
		return []byte("null"), nil
	}
	return json.Marshal(l.max)
}

func (l *UseLimit) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = UnlimitedUses()
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("max_uses: %w", err)
	}
	switch v := raw.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) || v >= math.MaxInt32 {
			*l = UnlimitedUses()
			return nil
		}
		*l = LimitUses(int(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "inf", "infinity", "unlimited":
			*l = UnlimitedUses()
		default:
			return fmt.Errorf("max_uses: unexpected value %q", v)
		}
	default:
		return fmt.Errorf("max_uses: unexpected value %s", data)
	}
	return nil
}

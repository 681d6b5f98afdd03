package domain

// Product is a catalog entry.
type Product struct {
	ID                string  `json:"-"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Price             float64 `json:"price"`
	Stock             Stock   `json:"stock"`
	Category          string  `json:"category,omitempty"`
	Emoji             string  `json:"emoji,omitempty"`
	RenewalPeriodDays int     `json:"renewal_period_days,omitempty"`
}

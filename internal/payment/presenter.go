package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
)

// Request carries what an invoice needs from a confirmed order.
type Request struct {
	OrderID  string
	BuyerID  string
	Items    []domain.OrderItem
	Discount float64
}

// Presenter turns a confirmed order into something the buyer can pay.
type Presenter interface {
	Present(ctx context.Context, req Request) (*Invoice, error)
}

// RateSource quotes coin prices in a fiat currency, keyed by coin id.
type RateSource interface {
	Rates(ctx context.Context, coinIDs []string, currency string) (map[string]float64, error)
}

// UPIOption is the UPI payment destination.
type UPIOption struct {
	ID   string `json:"id"`
	Note string `json:"note"`
	URI  string `json:"uri"`
}

// CryptoOption is one coin the store accepts. Amount is nil when no rate is known.
type CryptoOption struct {
	CoinID  string   `json:"coin_id"`
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Amount  *float64 `json:"amount,omitempty"`
}

// Invoice is the displayable payment artifact.
type Invoice struct {
	OrderID  string         `json:"order_id"`
	BuyerID  string         `json:"buyer_id"`
	Currency string         `json:"currency"`
	Subtotal float64        `json:"subtotal"`
	Discount float64        `json:"discount"`
	Total    float64        `json:"total"`
	UPI      *UPIOption     `json:"upi,omitempty"`
	Crypto   []CryptoOption `json:"crypto,omitempty"`
}

type coin struct {
	id     string
	symbol string
	name   string
}

var (
	litecoin = coin{id: "litecoin", symbol: "LTC", name: "Litecoin (LTC)"}
	tether   = coin{id: "tether", symbol: "USDT", name: "Tether (USDT TRC20)"}
	bitcoin  = coin{id: "bitcoin", symbol: "BTC", name: "Bitcoin (BTC)"}
)

// InvoicePresenter builds invoices from the store's payment config.
type InvoicePresenter struct {
	cfg    config.PaymentConfig
	rates  RateSource
	logger *zap.Logger
}

// NewInvoicePresenter creates the presenter. rates may be nil, in which case
// crypto options are listed without amounts.
func NewInvoicePresenter(cfg config.PaymentConfig, rates RateSource, logger *zap.Logger) *InvoicePresenter {
	return &InvoicePresenter{cfg: cfg, rates: rates, logger: logger}
}

func (p *InvoicePresenter) Present(ctx context.Context, req Request) (*Invoice, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("present invoice: missing order id")
	}
	var subtotal float64
	for _, item := range req.Items {
		subtotal += item.Total()
	}
	total := subtotal - req.Discount
	if total < 0 {
		total = 0
	}

	inv := &Invoice{
		OrderID:  req.OrderID,
		BuyerID:  req.BuyerID,
		Currency: p.currency(),
		Subtotal: subtotal,
		Discount: req.Discount,
		Total:    total,
	}
	if p.cfg.UPIID != "" {
		inv.UPI = &UPIOption{
			ID:   p.cfg.UPIID,
			Note: "Order-" + req.OrderID,
			URI:  p.upiURI(req.OrderID, total),
		}
	}
	inv.Crypto = p.cryptoOptions(ctx, total)
	return inv, nil
}

func (p *InvoicePresenter) currency() string {
	if p.cfg.Currency == "" {
		return "INR"
	}
	return strings.ToUpper(p.cfg.Currency)
}

func (p *InvoicePresenter) upiURI(orderID string, total float64) string {
	payee := p.cfg.PayeeName
	if payee == "" {
		payee = "YourStore"
	}
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=%s&tn=%s",
		url.QueryEscape(p.cfg.UPIID),
		url.QueryEscape(payee),
		total,
		p.currency(),
		url.QueryEscape("Order-"+orderID),
	)
}

func (p *InvoicePresenter) cryptoOptions(ctx context.Context, total float64) []CryptoOption {
	type accepted struct {
		coin    coin
		address string
	}
	var coins []accepted
	for _, a := range []accepted{
		{coin: litecoin, address: p.cfg.LTCAddress},
		{coin: tether, address: p.cfg.USDTAddress},
		{coin: bitcoin, address: p.cfg.BTCAddress},
	} {
		if a.address != "" {
			coins = append(coins, a)
		}
	}
	if len(coins) == 0 {
		return nil
	}

	var rates map[string]float64
	if p.rates != nil {
		ids := make([]string, 0, len(coins))
		for _, a := range coins {
			ids = append(ids, a.coin.id)
		}
		var err error
		rates, err = p.rates.Rates(ctx, ids, strings.ToLower(p.currency()))
		if err != nil {
			p.logger.Warn("crypto rates unavailable", zap.Error(err))
		}
	}

	out := make([]CryptoOption, 0, len(coins))
	for _, a := range coins {
		opt := CryptoOption{
			CoinID:  a.coin.id,
			Symbol:  a.coin.symbol,
			Name:    a.coin.name,
			Address: a.address,
		}
		if rate := rates[a.coin.id]; rate > 0 {
			amount := total / rate
			opt.Amount = &amount
		}
		out = append(out, opt)
	}
	return out
}

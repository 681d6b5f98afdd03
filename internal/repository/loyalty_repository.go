package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// ErrInsufficientPoints is returned by Spend when the balance is too low.
var ErrInsufficientPoints = errors.New("insufficient points")

// Member is a users collection entry.
type Member struct {
	UserID string `json:"-"`
	Points int    `json:"points"`
}

// LoyaltyRepository encapsulates the points ledger.
type LoyaltyRepository interface {
	Points(ctx context.Context, userID string) (int, error)
	AddPoints(ctx context.Context, userID string, points int) (int, error)
	Spend(ctx context.Context, userID string, points int) (int, error)
	// Adjust adds delta, which may be negative, flooring the balance at zero.
	Adjust(ctx context.Context, userID string, delta int) (int, error)
	Top(ctx context.Context, limit int) ([]Member, error)
}

type loyaltyRepository struct {
	users *collection[Member]
}

// NewLoyaltyRepository instantiates repository.
func NewLoyaltyRepository(gw persistence.Gateway) LoyaltyRepository {
	return &loyaltyRepository{users: newCollection[Member](gw, persistence.CollectionUsers)}
}

func (r *loyaltyRepository) Points(ctx context.Context, userID string) (int, error) {
	records, err := r.users.read(ctx)
	if err != nil {
		return 0, err
	}
	return records[userID].Points, nil
}

func (r *loyaltyRepository) AddPoints(ctx context.Context, userID string, points int) (int, error) {
	var balance int
	err := r.users.update(ctx, func(records map[string]Member) error {
		m := records[userID]
		m.Points += points
		records[userID] = m
		balance = m.Points
		return nil
	})
	return balance, err
}

func (r *loyaltyRepository) Spend(ctx context.Context, userID string, points int) (int, error) {
	var balance int
	err := r.users.update(ctx, func(records map[string]Member) error {
		m := records[userID]
		if m.Points < points {
			return ErrInsufficientPoints
		}
		m.Points -= points
		records[userID] = m
		balance = m.Points
		return nil
	})
	return balance, err
}

func (r *loyaltyRepository) Adjust(ctx context.Context, userID string, delta int) (int, error) {
	var balance int
	err := r.users.update(ctx, func(records map[string]Member) error {
		m := records[userID]
		m.Points += delta
		if m.Points < 0 {
			m.Points = 0
		}
		records[userID] = m
		balance = m.Points
		return nil
	})
	return balance, err
}

// Top returns members with a positive balance, highest first.
func (r *loyaltyRepository) Top(ctx context.Context, limit int) ([]Member, error) {
	records, err := r.users.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(records))
	for id, m := range records {
		if m.Points <= 0 {
			continue
		}
		m.UserID = id
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

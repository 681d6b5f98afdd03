package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/storefront-tickets/internal/persistence"
)

// ReferralRepository maps referral codes to the referring member.
type ReferralRepository interface {
	Referrer(ctx context.Context, code string) (string, error)
	CodeFor(ctx context.Context, referrerID string) (string, error)
	Create(ctx context.Context, code, referrerID string) error
	// Ensure returns referrerID's code, registering the one produced by mint
	// when none exists. Lookup and insert happen under one lock.
	Ensure(ctx context.Context, referrerID string, mint func() (string, error)) (code string, created bool, err error)
}

type referralRepository struct {
	referrals *collection[string]
}

// NewReferralRepository instantiates repository.
func NewReferralRepository(gw persistence.Gateway) ReferralRepository {
	return &referralRepository{referrals: newCollection[string](gw, persistence.CollectionReferrals)}
}

func (r *referralRepository) Referrer(ctx context.Context, code string) (string, error) {
	records, err := r.referrals.read(ctx)
	if err != nil {
		return "", err
	}
	referrer, ok := records[code]
	if !ok {
		return "", ErrNotFound
	}
	return referrer, nil
}

// CodeFor returns the referral code already issued to referrerID.
func (r *referralRepository) CodeFor(ctx context.Context, referrerID string) (string, error) {
	records, err := r.referrals.read(ctx)
	if err != nil {
		return "", err
	}
	for code, owner := range records {
		if owner == referrerID {
			return code, nil
		}
	}
	return "", ErrNotFound
}

func (r *referralRepository) Create(ctx context.Context, code, referrerID string) error {
	return r.referrals.update(ctx, func(records map[string]string) error {
		if _, exists := records[code]; exists {
			return ErrAlreadyExists
		}
		records[code] = referrerID
		return nil
	})
}

// errReferralExists stops an update without writing when the code is already issued.
var errReferralExists = errors.New("referral code exists")

func (r *referralRepository) Ensure(ctx context.Context, referrerID string, mint func() (string, error)) (string, bool, error) {
	var code string
	err := r.referrals.update(ctx, func(records map[string]string) error {
		for existing, owner := range records {
			if owner == referrerID {
				code = existing
				return errReferralExists
			}
		}
		minted, err := mint()
		if err != nil {
			return err
		}
		if _, taken := records[minted]; taken {
			return ErrAlreadyExists
		}
		records[minted] = referrerID
		code = minted
		return nil
	})
	if errors.Is(err, errReferralExists) {
		return code, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

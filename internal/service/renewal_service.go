package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-tickets/internal/config"
	"github.com/spec-kit/storefront-tickets/internal/domain"
	"github.com/spec-kit/storefront-tickets/internal/events"
	"github.com/spec-kit/storefront-tickets/internal/repository"
	apperrors "github.com/spec-kit/storefront-tickets/pkg/util/errorutil"
)

// RenewalReminder is one delivered subscription about to expire.
type RenewalReminder struct {
	OrderID     string
	RecipientID string
	ProductID   string
	ProductName string
	ExpiresAt   time.Time
	DaysLeft    int
}

// RenewalService finds delivered subscription products nearing expiry.
type RenewalService struct {
	orders     repository.OrderRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.RenewalConfig
	now        Clock
}

// RenewalDependencies bundles collaborators.
type RenewalDependencies struct {
	OrderRepo   repository.OrderRepository
	CatalogRepo repository.CatalogRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Renewal     config.RenewalConfig
	Clock       Clock
}

func NewRenewalService(deps RenewalDependencies) *RenewalService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenewalService{
		orders:     deps.OrderRepo,
		catalog:    deps.CatalogRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Renewal,
		now:        clockOrNow(deps.Clock),
	}
}

// Due returns reminders for items whose remaining whole days equal the
// configured reminder window at now.
func (s *RenewalService) Due(ctx context.Context, now time.Time) ([]RenewalReminder, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	periods := make(map[string]int, len(products))
	for _, p := range products {
		if p.RenewalPeriodDays > 0 {
			periods[p.ID] = p.RenewalPeriodDays
		}
	}

	var due []RenewalReminder
	for _, o := range orders {
		if o.Status != domain.OrderStatusDelivered {
			continue
		}
		for _, item := range o.Items {
			days, ok := periods[item.ProductID]
			if !ok {
				continue
			}
			expires := o.Timestamp.AddDate(0, 0, days)
			left := int(expires.Sub(now).Hours() / 24)
			if left != s.cfg.ReminderDays {
				continue
			}
			due = append(due, RenewalReminder{
				OrderID:     o.ID,
				RecipientID: o.DeliveryTarget(),
				ProductID:   item.ProductID,
				ProductName: item.Name,
				ExpiresAt:   expires,
				DaysLeft:    left,
			})
		}
	}
	return due, nil
}

// Notify publishes renewal_due for every reminder due now and returns how
// many were sent.
func (s *RenewalService) Notify(ctx context.Context) (int, error) {
	due, err := s.Due(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, r := range due {
		err := publish(ctx, s.dispatcher, s.now, events.Event{
			Type:    events.EventRenewalDue,
			OrderID: r.OrderID,
			Payload: events.RenewalDuePayload{
				RecipientID: r.RecipientID,
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				ExpiresAt:   r.ExpiresAt,
			},
		})
		if err != nil {
			s.logger.Warn("renewal reminder not delivered",
				zap.String("order_id", r.OrderID),
				zap.String("recipient_id", r.RecipientID),
				zap.Error(err))
		}
	}
	return len(due), nil
}

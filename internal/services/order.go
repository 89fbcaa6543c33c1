package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/delivery"
	"github.com/diewo77/go-shop/internal/events"
	"github.com/diewo77/go-shop/internal/mailer"
	"github.com/diewo77/go-shop/internal/metrics"
	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/orderid"
	"github.com/diewo77/go-shop/internal/pricing"
	"github.com/diewo77/go-shop/internal/store"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrStorage is returned when an order could not be stored.
var ErrStorage = errors.New("order could not be stored")

// maxInsertAttempts bounds the retries after an id conflict.
const maxInsertAttempts = 5

// OrderStore is the persistence the service needs.
type OrderStore interface {
	orderid.Store
	Insert(ctx context.Context, ord *models.Order) error
}

// PlaceInput is everything needed to create an order.
type PlaceInput struct {
	Priced        pricing.PricedOrder
	Customer      models.Customer
	PaymentMethod string
}

// OrderService stores orders and notifies the seller and the buyer.
type OrderService struct {
	orders      OrderStore
	ids         *orderid.Generator
	sender      mailer.Sender
	composer    mailer.Composer
	sellerEmail string
	publisher   events.Publisher
	log         *zap.Logger

	// MailTimeout bounds each notification after the order is stored.
	MailTimeout time.Duration
}

func NewOrderService(orders OrderStore, sender mailer.Sender, composer mailer.Composer, sellerEmail string, publisher events.Publisher, log *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orders:      orders,
		ids:         orderid.New(orders),
		sender:      sender,
		composer:    composer,
		sellerEmail: sellerEmail,
		publisher:   publisher,
		log:         log,
		MailTimeout: 15 * time.Second,
	}
}

// WithIDGenerator replaces the id generator, mainly for tests.
func (s *OrderService) WithIDGenerator(g *orderid.Generator) *OrderService {
	s.ids = g
	return s
}

// Place stores a new order built from in and then, best effort, publishes an
// event and sends the e-mails. Only storage failures are returned.
func (s *OrderService) Place(ctx context.Context, in PlaceInput) (*models.Order, error) {
	ord := &models.Order{
		Total:         in.Priced.Total.Round(2),
		PaymentMethod: in.PaymentMethod,
		Items:         datatypes.NewJSONType(in.Priced.Lines),
		DeliveryDate:  delivery.Normalize(in.Priced.DeliveryDate),
	}
	ord.SetCustomer(in.Customer)

	if err := s.insert(ctx, ord); err != nil {
		metrics.RecordOrderOperation("place", false)
		s.log.Error("order not stored", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	metrics.RecordOrderOperation("place", true)
	s.log.Info("order placed",
		zap.String("order", ord.DisplayID),
		zap.String("total", amount.FormatAmount(ord.Total)),
		zap.String("delivery_date", delivery.FormatDate(ord.DeliveryDate)),
	)

	// the order is durable; the customer request must not wait on or fail
	// because of what follows
	notifyCtx := context.WithoutCancel(ctx)
	s.publish(notifyCtx, ord)
	s.notify(notifyCtx, ord)
	return ord, nil
}

// insert assigns an id and stores ord, drawing a new id when another order
// took it between the check and the insert.
func (s *OrderService) insert(ctx context.Context, ord *models.Order) error {
	var lastErr error
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		id, display, err := s.ids.Next(ctx)
		if err != nil {
			return err
		}
		ord.ID, ord.DisplayID = id, display
		err = s.orders.Insert(ctx, ord)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		s.log.Warn("order id conflict, retrying", zap.Uint("id", id), zap.Int("attempt", attempt))
		lastErr = err
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxInsertAttempts, lastErr)
}

func (s *OrderService) publish(ctx context.Context, ord *models.Order) {
	ctx, cancel := context.WithTimeout(ctx, s.MailTimeout)
	defer cancel()
	ev := events.OrderCreated{
		OrderID:       ord.ID,
		DisplayID:     ord.DisplayID,
		Total:         amount.FormatAmount(ord.Total),
		PaymentMethod: ord.PaymentMethod,
		City:          ord.City,
		DeliveryDate:  delivery.FormatDate(ord.DeliveryDate),
		Lines:         len(ord.Lines()),
		CreatedAt:     ord.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, ev); err != nil {
		metrics.RecordOrderOperation("publish", false)
		s.log.Warn("order event not published", zap.String("order", ord.DisplayID), zap.Error(err))
	}
}

func (s *OrderService) notify(ctx context.Context, ord *models.Order) {
	c := ord.Customer()
	total := amount.FormatAmount(ord.Total)
	seller, buyer := s.composer.Compose(c, ord.Lines(), total, ord.DisplayID, ord.PaymentMethod)

	if s.sellerEmail != "" {
		s.send(ctx, "seller", ord.DisplayID, mailer.Message{To: s.sellerEmail, Subject: mailer.NoticeSubject(c), Body: seller})
	}
	if c.Email != "" {
		s.send(ctx, "buyer", ord.DisplayID, mailer.Message{To: c.Email, Subject: mailer.ConfirmationSubject, Body: buyer})
	}
}

func (s *OrderService) send(ctx context.Context, kind, displayID string, msg mailer.Message) {
	ctx, cancel := context.WithTimeout(ctx, s.MailTimeout)
	defer cancel()
	if err := s.sender.Send(ctx, msg); err != nil {
		metrics.RecordMailFailure(kind)
		s.log.Error("order e-mail not sent",
			zap.String("kind", kind),
			zap.String("order", displayID),
			zap.Error(err),
		)
	}
}

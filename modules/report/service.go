package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
)

// Backend lists orders and their lines.
type Backend interface {
	Orders(ctx context.Context, token string) ([]order.Order, error)
	OrderDetails(ctx context.Context, token string, orderID int64) ([]order.Detail, error)
}

// Report is a filtered order list with its totals.
type Report struct {
	From    string        `json:"from,omitempty"`
	To      string        `json:"to,omitempty"`
	Summary Summary       `json:"summary"`
	Orders  []order.Order `json:"orders"`
}

// Export is a rendered CSV file.
type Export struct {
	FileName string
	Rows     int
	Data     []byte
}

// Service builds sales reports from the shop backend.
type Service struct {
	backend     Backend
	loc         *time.Location
	concurrency int
	now         func() time.Time
}

// NewService creates a Service. Dates are interpreted in loc.
func NewService(backend Backend, loc *time.Location, concurrency int) *Service {
	if loc == nil {
		loc = time.Local
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		backend:     backend,
		loc:         loc,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Report lists the orders placed between from and to, inclusive, with their totals.
func (s *Service) Report(ctx context.Context, actor user.Session, from, to string) (Report, error) {
	orders, err := s.filtered(ctx, actor, from, to)
	if err != nil {
		return Report{}, err
	}
	return Report{
		From:    from,
		To:      to,
		Summary: Summarize(orders),
		Orders:  orders,
	}, nil
}

// Export renders the filtered orders as CSV, one detail fetch per order.
func (s *Service) Export(ctx context.Context, actor user.Session, from, to string) (Export, error) {
	orders, err := s.filtered(ctx, actor, from, to)
	if err != nil {
		return Export{}, err
	}

	fetch := func(ctx context.Context, orderID int64) ([]order.Detail, error) {
		return s.backend.OrderDetails(ctx, actor.BackendToken, orderID)
	}
	rows, err := BuildRows(ctx, orders, fetch, s.concurrency)
	if err != nil {
		return Export{}, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, s.loc); err != nil {
		return Export{}, fmt.Errorf("failed to write csv: %w", err)
	}
	return Export{
		FileName: FileName(s.now().In(s.loc)),
		Rows:     len(rows),
		Data:     buf.Bytes(),
	}, nil
}

func (s *Service) filtered(ctx context.Context, actor user.Session, from, to string) ([]order.Order, error) {
	r, err := ParseRange(from, to, s.loc)
	if err != nil {
		return nil, err
	}
	orders, err := s.backend.Orders(ctx, actor.BackendToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return Filter(orders, r), nil
}

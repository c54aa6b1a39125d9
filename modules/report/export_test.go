package report

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"github.com/000francisca0/Peluchemaniav3/domain/product"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailsOf(pairs ...any) []order.Detail {
	var out []order.Detail
	for i := 0; i < len(pairs); i += 2 {
		d := order.Detail{Quantity: pairs[i].(int)}
		if name, ok := pairs[i+1].(string); ok {
			d.Product = &product.Product{Name: name}
		}
		out = append(out, d)
	}
	return out
}

func TestSummarizeDetails(t *testing.T) {
	assert.Equal(t, NoDetails, SummarizeDetails(nil))
	assert.Equal(t, "(2) Oso | (1) Eliminado", SummarizeDetails(detailsOf(2, "Oso", 1, nil)))
}

func TestBuildRows_FailedFetchDegrades(t *testing.T) {
	orders := []order.Order{{ID: 1}, {ID: 2}, {ID: 3}}
	fetch := func(_ context.Context, id int64) ([]order.Detail, error) {
		if id == 2 {
			return nil, backend.ErrUnavailable
		}
		return detailsOf(int(id), "Oso"), nil
	}

	rows, err := BuildRows(context.Background(), orders, fetch, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "(1) Oso", rows[0].Summary)
	assert.Equal(t, NoDetails, rows[1].Summary)
	assert.Equal(t, "(3) Oso", rows[2].Summary)
}

func TestBuildRows_KeepsInputOrderAndLimit(t *testing.T) {
	orders := make([]order.Order, 12)
	for i := range orders {
		orders[i] = order.Order{ID: int64(i + 1)}
	}

	var inFlight, peak atomic.Int32
	fetch := func(_ context.Context, id int64) ([]order.Detail, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		// Earlier orders finish last.
		time.Sleep(time.Duration(13-id) * time.Millisecond)
		inFlight.Add(-1)
		return detailsOf(int(id), "Oso"), nil
	}

	rows, err := BuildRows(context.Background(), orders, fetch, 3)
	require.NoError(t, err)
	for i, r := range rows {
		assert.Equal(t, int64(i+1), r.Order.ID)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBuildRows_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(ctx context.Context, _ int64) ([]order.Detail, error) {
		return nil, ctx.Err()
	}
	_, err := BuildRows(ctx, []order.Order{{ID: 1}}, fetch, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{
			Order: order.Order{
				ID:              7,
				PlacedAt:        at("2024-05-10 15:04:05"),
				CustomerEmail:   "ana@gmail.com",
				ShippingAddress: "Av. Siempre Viva 742, Depto 5, Maipú",
				Total:           13000,
			},
			Summary: "(2) Oso, grande | (1) Conejo",
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, rows, santiago))

	lines := strings.Split(sb.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Equal(t,
		`7,10-05-2024,15:04:05,ana@gmail.com,Av. Siempre Viva 742 -  Depto 5 -  Maipú,13000,"(2) Oso -  grande | (1) Conejo"`,
		lines[1])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "reporte_detallado_2024-05-10.csv", FileName(time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)))
}

// stubBackend serves fixed orders and fails the details of one order.
type stubBackend struct {
	orders   []order.Order
	failID   int64
	ordersFn func() error
}

func (s *stubBackend) Orders(context.Context, string) ([]order.Order, error) {
	if s.ordersFn != nil {
		if err := s.ordersFn(); err != nil {
			return nil, err
		}
	}
	return s.orders, nil
}

func (s *stubBackend) OrderDetails(_ context.Context, _ string, id int64) ([]order.Detail, error) {
	if id == s.failID {
		return nil, &backend.APIError{Status: 500}
	}
	return detailsOf(1, "Oso"), nil
}

func TestService_Export(t *testing.T) {
	be := &stubBackend{
		orders: []order.Order{
			{ID: 1, PlacedAt: at("2024-05-01 10:00:00"), CustomerEmail: "a@gmail.com", Total: 5000},
			{ID: 2, PlacedAt: at("2024-05-02 10:00:00"), CustomerEmail: "b@gmail.com", Total: 3000},
			{ID: 3, PlacedAt: at("2024-05-03 10:00:00"), CustomerEmail: "c@gmail.com", Total: 8000},
		},
		failID: 2,
	}
	svc := NewService(be, santiago, 2)
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, santiago) }
	actor := user.Session{BackendToken: "admin-token"}

	export, err := svc.Export(context.Background(), actor, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, export.Rows)
	assert.Equal(t, "reporte_detallado_2024-05-20.csv", export.FileName)

	lines := strings.Split(string(export.Data), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "3,03-05-2024,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], `,"Sin detalles"`), lines[2])
	assert.True(t, strings.HasSuffix(lines[3], `,"(1) Oso"`), lines[3])
}

func TestService_Report(t *testing.T) {
	be := &stubBackend{orders: testOrders()}
	svc := NewService(be, santiago, 0)

	rep, err := svc.Report(context.Background(), user.Session{BackendToken: "admin-token"}, "2024-05-01", "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Summary.Count)
	assert.Equal(t, 15000.0, rep.Summary.Revenue)
	assert.Equal(t, []int64{2, 1}, ids(rep.Orders))

	_, err = svc.Report(context.Background(), user.Session{}, "ayer", "")
	assert.ErrorIs(t, err, ErrInvalidDate)

	be.ordersFn = func() error { return backend.ErrUnavailable }
	_, err = svc.Report(context.Background(), user.Session{}, "", "")
	assert.True(t, errors.Is(err, backend.ErrUnavailable))
}

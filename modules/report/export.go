package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/order"
	"golang.org/x/sync/errgroup"
)

// Placeholders used in detail summaries.
const (
	NoDetails      = "Sin detalles"
	DeletedProduct = "Eliminado"
)

// CSVHeader is the first line of every export.
const CSVHeader = "ID Boleta,Fecha,Hora,Cliente,Direccion,Total,Detalle Productos"

// DefaultConcurrency bounds detail fetches when none is configured.
const DefaultConcurrency = 8

// DetailFetcher loads the lines of one order.
type DetailFetcher func(ctx context.Context, orderID int64) ([]order.Detail, error)

// Row is an order with its detail summary.
type Row struct {
	Order   order.Order `json:"order"`
	Summary string      `json:"summary"`
}

// SummarizeDetails renders details as "(qty) name" items joined by " | ".
func SummarizeDetails(details []order.Detail) string {
	if len(details) == 0 {
		return NoDetails
	}
	items := make([]string, len(details))
	for i, d := range details {
		items[i] = fmt.Sprintf("(%d) %s", d.Quantity, d.ProductName(DeletedProduct))
	}
	return strings.Join(items, " | ")
}

// BuildRows fetches the details of every order with at most limit fetches in
// flight. A failed fetch degrades its row to NoDetails. Rows follow the order
// of orders. Only cancellation of ctx fails the build.
func BuildRows(ctx context.Context, orders []order.Order, fetch DetailFetcher, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	rows := make([]Row, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, o := range orders {
		rows[i].Order = o
		g.Go(func() error {
			details, err := fetch(gctx, o.ID)
			if err != nil {
				log.Printf("[report] Warning: details of order %d unavailable: %v", o.ID, err)
				rows[i].Summary = NoDetails
				return nil
			}
			rows[i].Summary = SummarizeDetails(details)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("export cancelled: %w", err)
	}
	return rows, nil
}

// WriteCSV writes the header and one line per row. Dates and times are shown
// in loc. Commas in free text become " - " and the summary is always quoted.
func WriteCSV(w io.Writer, rows []Row, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		placed := r.Order.PlacedAt.In(loc)
		line := fmt.Sprintf("\n%d,%s,%s,%s,%s,%s,\"%s\"",
			r.Order.ID,
			placed.Format("02-01-2006"),
			placed.Format("15:04:05"),
			clean(r.Order.CustomerEmail),
			clean(r.Order.ShippingAddress),
			strconv.FormatFloat(r.Order.Total, 'f', -1, 64),
			clean(r.Summary),
		)
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// clean keeps free text from breaking the column layout.
func clean(s string) string {
	s = strings.ReplaceAll(s, ",", " - ")
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// FileName returns the download name for an export made at t.
func FileName(t time.Time) string {
	return "reporte_detallado_" + t.Format(DateLayout) + ".csv"
}

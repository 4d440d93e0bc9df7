package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/model"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ImportRow is one raw record from an import file. Line is the 1-based
// source line used in error messages.
type ImportRow struct {
	Line     int
	Name     string
	Spec     string
	Quantity string
	Location string
}

type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// quantity reads the raw value; blank, non-numeric and negative values count as zero.
func (r ImportRow) quantity() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Quantity))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// BulkImport registers every usable row. Rows commit independently: a row
// that fails is reported and the import carries on.
func (s *inventoryService) BulkImport(ctx context.Context, rows []ImportRow) (report *ImportReport, err error) {
	ctx, span := startSpan(ctx, "inventory.BulkImport", attribute.Int("import.rows", len(rows)))
	defer func() { endSpan(span, err) }()

	caller, err := requireApproved(ctx)
	if err != nil {
		return nil, err
	}

	report = &ImportReport{Errors: []string{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		req := RegisterItemRequest{
			Name:     row.Name,
			Spec:     row.Spec,
			Quantity: row.quantity(),
			Location: row.Location,
		}
		req.normalize()
		if req.Name == "" || req.Spec == "" {
			report.Skipped++
			continue
		}

		res, err := s.registerItem(ctx, req, model.ManagerImport)
		switch {
		case err != nil && errors.Is(err, ErrPermissionDenied):
			return report, err
		case err != nil:
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", row.Line, err))
		case res.Created:
			report.Imported++
		default:
			report.Skipped++
		}
	}

	span.SetAttributes(
		attribute.Int("import.imported", report.Imported),
		attribute.Int("import.skipped", report.Skipped),
		attribute.Int("import.errors", len(report.Errors)))
	s.logger.Info("bulk import finished",
		zap.Int("rows", len(rows)),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
		zap.String("by", caller.Username))
	s.publisher.Publish(ctx, events.New(events.ActionItemsImported, caller.Username,
		fmt.Sprintf("%s imported %d items (%d skipped)", caller.Username, report.Imported, report.Skipped)))

	return report, nil
}

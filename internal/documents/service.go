package documents

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/abiball/abiball-backend/pkg/authz"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
)

// Service renders the admin exports as downloadable byte blobs.
type Service interface {
	GuestListCSV(ctx context.Context, actor authz.Context, eventID string) ([]byte, error)
	OrderSummaryCSV(ctx context.Context, actor authz.Context, eventID string) ([]byte, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a documents service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// guestListHeader keeps the column layout the organizers' spreadsheets
// import; do not reorder.
var guestListHeader = []string{
	"Name", "Ticket-Nr", "Besteller E-Mail", "Besteller Name",
	"Zahlungsreferenz", "Bestelldatum", "Preis",
}

func (s *service) GuestListCSV(ctx context.Context, actor authz.Context, eventID string) ([]byte, error) {
	if err := s.checkExport(ctx, actor, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListGuestRows(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list guest rows")
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, guestListHeader)
	for _, row := range rows {
		records = append(records, []string{
			row.FirstName + " " + row.LastName,
			fmt.Sprintf("%d", row.TicketNumber),
			row.BuyerEmail,
			row.BuyerFirstName + " " + row.BuyerLastName,
			row.PaymentReference,
			row.OrderedAt.Format("2006-01-02 15:04"),
			row.UnitPrice.StringFixed(2),
		})
	}
	return writeCSV(records)
}

var orderSummaryHeader = []string{
	"Bestellnummer", "Besteller E-Mail", "Besteller Name", "Status",
	"Anzahl", "Gesamtpreis", "Zahlungsreferenz", "Bestelldatum", "Bezahlt am",
}

func (s *service) OrderSummaryCSV(ctx context.Context, actor authz.Context, eventID string) ([]byte, error) {
	if err := s.checkExport(ctx, actor, eventID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListOrderRows(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order rows")
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, orderSummaryHeader)
	for _, row := range rows {
		paidAt := ""
		if row.PaidAt != nil {
			paidAt = row.PaidAt.Format("2006-01-02 15:04")
		}
		records = append(records, []string{
			row.OrderID,
			row.BuyerEmail,
			row.BuyerFirstName + " " + row.BuyerLastName,
			row.Status,
			fmt.Sprintf("%d", row.Quantity),
			row.TotalAmount.StringFixed(2),
			row.PaymentReference,
			row.OrderedAt.Format("2006-01-02 15:04"),
			paidAt,
		})
	}
	return writeCSV(records)
}

func (s *service) checkExport(ctx context.Context, actor authz.Context, eventID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if eventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check event")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
	}
	return nil
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv")
	}
	return buf.Bytes(), nil
}

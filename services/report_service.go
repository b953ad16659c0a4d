package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportService handles Excel export of collected payments
type ReportService struct {
	store repository.Store
}

// NewReportService creates a new report service
func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

// KindTotal is the collected amount for one subject kind
type KindTotal struct {
	Kind  models.SubjectKind
	Count int
	Total decimal.Decimal
}

// CollectionsWorkbook builds the collections workbook for payments in [from, to)
func (s *ReportService) CollectionsWorkbook(ctx context.Context, from, to time.Time) (*excelize.File, string, error) {
	if !to.After(from) {
		return nil, "", utils.NewValidationError("'to' must be after 'from'")
	}
	records, err := s.store.Repos().Payments.ListBetween(ctx, from, to)
	if err != nil {
		return nil, "", utils.NewTransientError(utils.ErrFailedToRetrieve, err)
	}

	f := excelize.NewFile()
	if err := s.createCollectionsSheet(f, records); err != nil {
		return nil, "", fmt.Errorf("failed to create collections sheet: %v", err)
	}
	if err := s.createSummarySheet(f, SummarizeByKind(records)); err != nil {
		return nil, "", fmt.Errorf("failed to create summary sheet: %v", err)
	}
	f.DeleteSheet("Sheet1")

	filename := fmt.Sprintf("Collections_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return f, filename, nil
}

// SummarizeByKind totals records per subject kind, ordered by kind
func SummarizeByKind(records []models.PaymentRecord) []KindTotal {
	byKind := map[models.SubjectKind]*KindTotal{}
	for _, rec := range records {
		t, ok := byKind[rec.SubjectKind]
		if !ok {
			t = &KindTotal{Kind: rec.SubjectKind, Total: decimal.Zero}
			byKind[rec.SubjectKind] = t
		}
		t.Count++
		t.Total = t.Total.Add(rec.Amount)
	}
	totals := make([]KindTotal, 0, len(byKind))
	for _, t := range byKind {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Kind < totals[j].Kind })
	return totals
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
	})
	return style
}

// createCollectionsSheet lists every payment with a totals row
func (s *ReportService) createCollectionsSheet(f *excelize.File, records []models.PaymentRecord) error {
	sheetName := "Collections"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headers := []string{"Reference", "Kind", "Subject", "Description", "Method", "Periods", "Amount", "Paid At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle(f))

	total := decimal.Zero
	row := 2
	for _, rec := range records {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.ReferenceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), string(rec.SubjectKind))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.SubjectKey)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(rec.Method))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), strings.Join(rec.Periods, ", "))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rec.Amount.InexactFloat64())
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), rec.PaidAt.Format("2006-01-02 15:04:05"))
		total = total.Add(rec.Amount)
		row++
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), total.InexactFloat64())
	f.SetCellStyle(sheetName, fmt.Sprintf("F%d", row), fmt.Sprintf("G%d", row), totalStyle)

	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "C", 22)
	f.SetColWidth(sheetName, "D", "D", 48)
	f.SetColWidth(sheetName, "E", "H", 16)
	return nil
}

// createSummarySheet shows count and total per kind
func (s *ReportService) createSummarySheet(f *excelize.File, totals []KindTotal) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Kind", "Payments", "Total"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle(f))

	for i, t := range totals {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), string(t.Kind))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), t.Count)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), t.Total.InexactFloat64())
	}
	f.SetColWidth(sheetName, "A", "C", 18)
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/repository"
)

type RangeName string

const (
	RangeToday      RangeName = "today"
	RangeYesterday  RangeName = "yesterday"
	RangeThisWeek   RangeName = "this_week"
	RangeLastWeek   RangeName = "last_week"
	RangeThisMonth  RangeName = "this_month"
	RangeLastMonth  RangeName = "last_month"
	RangeLast7Days  RangeName = "last_7_days"
	RangeLast30Days RangeName = "last_30_days"
	RangeLast90Days RangeName = "last_90_days"
)

// ResolveRange turns a named period into an inclusive [start, end] date pair
// anchored on the given date. Weeks start on Monday.
func ResolveRange(name RangeName, anchor time.Time) (time.Time, time.Time, error) {
	day := dateOnly(anchor)

	switch name {
	case RangeToday:
		return day, day, nil
	case RangeYesterday:
		yesterday := day.AddDate(0, 0, -1)
		return yesterday, yesterday, nil
	case RangeThisWeek:
		return startOfWeek(day), day, nil
	case RangeLastWeek:
		start := startOfWeek(day).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6), nil
	case RangeThisMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, day, nil
	case RangeLastMonth:
		firstOfThis := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := firstOfThis.AddDate(0, 0, -1)
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, end, nil
	case RangeLast7Days:
		return day.AddDate(0, 0, -6), day, nil
	case RangeLast30Days:
		return day.AddDate(0, 0, -29), day, nil
	case RangeLast90Days:
		return day.AddDate(0, 0, -89), day, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, name)
	}
}

func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the ISO week
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

type ReportFilter struct {
	Type          model.FlowType
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Period        RangeName
	DateFrom      *time.Time
	DateTo        *time.Time
	OrderBy       string
}

type ReportResult struct {
	Movements []model.CashMovement `json:"movements"`
	Count     int64                `json:"count"`
	TotalIn   decimal.Decimal      `json:"total_in"`
	TotalOut  decimal.Decimal      `json:"total_out"`
	Balance   decimal.Decimal      `json:"balance"`
	DateFrom  *time.Time           `json:"date_from,omitempty"`
	DateTo    *time.Time           `json:"date_to,omitempty"`
}

// ReportService answers filtered ledger queries with aggregate totals.
type ReportService struct {
	ledger *repository.LedgerRepository
}

func NewReportService(ledger *repository.LedgerRepository) *ReportService {
	return &ReportService{ledger: ledger}
}

// Generate resolves the filter's period (a named range wins over explicit
// dates) and returns the matching movements with their totals.
func (s *ReportService) Generate(ctx context.Context, filter ReportFilter) (*ReportResult, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown movement type %q", ErrInvalidInput, filter.Type)
	}

	dateFrom := filter.DateFrom
	dateTo := filter.DateTo
	if filter.Period != "" {
		start, end, err := ResolveRange(filter.Period, time.Now())
		if err != nil {
			return nil, err
		}
		dateFrom, dateTo = &start, &end
	}

	repoFilter := repository.MovementFilter{
		Type:          filter.Type,
		CategoryID:    filter.CategoryID,
		SubcategoryID: filter.SubcategoryID,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		OrderBy:       filter.OrderBy,
	}

	movements, count, err := s.ledger.ListMovements(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	totalIn, totalOut, err := s.ledger.SumMovements(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	// A type-filtered report only totals the selected flow.
	switch filter.Type {
	case model.FlowTypeIn:
		totalOut = decimal.Zero
	case model.FlowTypeOut:
		totalIn = decimal.Zero
	}

	return &ReportResult{
		Movements: movements,
		Count:     count,
		TotalIn:   totalIn,
		TotalOut:  totalOut,
		Balance:   totalIn.Sub(totalOut),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	}, nil
}

type Summary struct {
	MonthSalesTotal decimal.Decimal      `json:"month_sales_total"`
	MonthSalesCount int64                `json:"month_sales_count"`
	MonthIn         decimal.Decimal      `json:"month_in"`
	MonthOut        decimal.Decimal      `json:"month_out"`
	MonthNet        decimal.Decimal      `json:"month_net"`
	LatestBalance   *model.CashBalance   `json:"latest_balance,omitempty"`
	Recent          []model.CashMovement `json:"recent_movements"`
}

// Summarize builds the back-office home numbers for the current month.
func (s *ReportService) Summarize(ctx context.Context) (*Summary, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	today := dateOnly(now)

	sales, salesCount, err := s.ledger.ListSales(ctx, repository.SaleFilter{
		Status:   model.SaleStatusPaid,
		DateFrom: &monthStart,
		DateTo:   &today,
	})
	if err != nil {
		return nil, err
	}
	salesTotal := decimal.Zero
	for _, sale := range sales {
		salesTotal = salesTotal.Add(sale.FinalValue)
	}

	monthFilter := repository.MovementFilter{DateFrom: &monthStart, DateTo: &today}
	monthIn, monthOut, err := s.ledger.SumMovements(ctx, monthFilter)
	if err != nil {
		return nil, err
	}

	latest, err := s.ledger.LatestBalance(ctx)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.ledger.ListMovements(ctx, repository.MovementFilter{Limit: 10})
	if err != nil {
		return nil, err
	}

	return &Summary{
		MonthSalesTotal: salesTotal,
		MonthSalesCount: salesCount,
		MonthIn:         monthIn,
		MonthOut:        monthOut,
		MonthNet:        monthIn.Sub(monthOut),
		LatestBalance:   latest,
		Recent:          recent,
	}, nil
}

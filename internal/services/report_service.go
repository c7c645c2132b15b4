package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"
)

const reportDateLayout = "2006-01-02"

type ReportService interface {
	CollectionReport(dateFrom, dateTo string) (*dto.CollectionReportResponse, error)
	DailyCashReport(date string) (*dto.DailyCashReportResponse, error)
	ExportCollectionsCSV(dateFrom, dateTo string) ([]byte, error)
	ExportDailySummaryCSV(dateFrom, dateTo string) ([]byte, error)
}

type ReportServiceImpl struct {
	paymentRepo repositories.PaymentRepository
}

func NewReportService(paymentRepo repositories.PaymentRepository) ReportService {
	return &ReportServiceImpl{paymentRepo: paymentRepo}
}

// CollectionReport aggregates payments over a date range into daily buckets
// plus method and status breakdowns. Collected means completed or succeeded.
func (s *ReportServiceImpl) CollectionReport(dateFrom, dateTo string) (*dto.CollectionReportResponse, error) {
	from, to, err := parseReportRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	payments, err := s.fetchRange(from, to)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	report := &dto.CollectionReportResponse{
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}

	dailyIndex := make(map[string]*dto.DailyBucket)
	methodIndex := make(map[string]*dto.MethodBreakdown)
	statusIndex := make(map[string]*dto.StatusBreakdown)

	for i := range payments {
		p := &payments[i]
		report.PaymentCount++

		day := p.CreatedAt.Format(reportDateLayout)
		bucket, ok := dailyIndex[day]
		if !ok {
			bucket = &dto.DailyBucket{Date: day}
			dailyIndex[day] = bucket
		}
		bucket.Count++

		if p.Status.IsCollected() {
			report.TotalCollected += p.Amount
			bucket.Collected += p.Amount
		} else if p.Status == models.PaymentStatusPending {
			report.TotalPending += p.Amount
			bucket.Pending += p.Amount
		}

		method, ok := methodIndex[string(p.Method)]
		if !ok {
			method = &dto.MethodBreakdown{Method: string(p.Method)}
			methodIndex[string(p.Method)] = method
		}
		method.Count++
		if p.Status.IsCollected() {
			method.Collected += p.Amount
		}

		status, ok := statusIndex[string(p.Status)]
		if !ok {
			status = &dto.StatusBreakdown{Status: string(p.Status)}
			statusIndex[string(p.Status)] = status
		}
		status.Count++
		status.Amount += p.Amount
	}

	report.Daily = sortedDaily(dailyIndex)
	report.ByMethod = sortedMethods(methodIndex)
	report.ByStatus = sortedStatuses(statusIndex)

	return report, nil
}

// DailyCashReport breaks a single day down by hour for the cashier's
// end-of-day reconciliation. Only collected money counts.
func (s *ReportServiceImpl) DailyCashReport(date string) (*dto.DailyCashReportResponse, error) {
	day, err := time.Parse(reportDateLayout, date)
	if err != nil {
		return nil, apperrors.ValidationError(map[string]string{"date": "must be YYYY-MM-DD"})
	}

	from := day
	to := day.AddDate(0, 0, 1)

	payments, err := s.fetchRange(from, to)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	report := &dto.DailyCashReportResponse{Date: date}

	hourlyIndex := make(map[int]*dto.HourlyBucket)
	methodIndex := make(map[string]*dto.MethodBreakdown)

	for i := range payments {
		p := &payments[i]
		if !p.Status.IsCollected() {
			continue
		}

		report.TotalCollected += p.Amount
		report.PaymentCount++

		hour := p.CreatedAt.Hour()
		bucket, ok := hourlyIndex[hour]
		if !ok {
			bucket = &dto.HourlyBucket{Hour: hour}
			hourlyIndex[hour] = bucket
		}
		bucket.Collected += p.Amount
		bucket.Count++

		method, ok := methodIndex[string(p.Method)]
		if !ok {
			method = &dto.MethodBreakdown{Method: string(p.Method)}
			methodIndex[string(p.Method)] = method
		}
		method.Collected += p.Amount
		method.Count++
	}

	hours := make([]int, 0, len(hourlyIndex))
	for hour := range hourlyIndex {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	for _, hour := range hours {
		report.Hourly = append(report.Hourly, *hourlyIndex[hour])
	}

	report.ByMethod = sortedMethods(methodIndex)

	return report, nil
}

// ExportCollectionsCSV renders the raw payment rows for a range as CSV for
// the business office.
func (s *ReportServiceImpl) ExportCollectionsCSV(dateFrom, dateTo string) ([]byte, error) {
	from, to, err := parseReportRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	payments, err := s.fetchRange(from, to)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"reference", "student_id", "amount", "status", "method", "term", "paid_at", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.InternalError(err)
	}

	for i := range payments {
		p := &payments[i]
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.Format(time.RFC3339)
		}

		record := []string{
			p.Reference,
			p.StudentID,
			fmt.Sprintf("%.2f", p.Amount),
			string(p.Status),
			string(p.Method),
			p.Term,
			paidAt,
			p.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buf.Bytes(), nil
}

// ExportDailySummaryCSV renders one row per calendar day in the range, the
// same buckets the collection report shows.
func (s *ReportServiceImpl) ExportDailySummaryCSV(dateFrom, dateTo string) ([]byte, error) {
	report, err := s.CollectionReport(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "collected", "pending", "count"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.InternalError(err)
	}

	for i := range report.Daily {
		day := &report.Daily[i]
		record := []string{
			day.Date,
			fmt.Sprintf("%.2f", day.Collected),
			fmt.Sprintf("%.2f", day.Pending),
			strconv.FormatInt(day.Count, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buf.Bytes(), nil
}

// fetchRange drains the range page by page so a term's worth of payments does
// not need one giant query.
func (s *ReportServiceImpl) fetchRange(from, to time.Time) ([]models.Payment, error) {
	return repositories.FetchAllPages(repositories.DefaultReportPageSize,
		func(limit, offset int) ([]models.Payment, error) {
			return s.paymentRepo.FindInRange(from, to, limit, offset)
		})
}

func parseReportRange(dateFrom, dateTo string) (time.Time, time.Time, error) {
	from, err := time.Parse(reportDateLayout, dateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ValidationError(map[string]string{"date_from": "must be YYYY-MM-DD"})
	}

	to, err := time.Parse(reportDateLayout, dateTo)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ValidationError(map[string]string{"date_to": "must be YYYY-MM-DD"})
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.ValidationError(map[string]string{"date_to": "must not be before date_from"})
	}

	// Inclusive end date.
	return from, to.AddDate(0, 0, 1), nil
}

func sortedDaily(index map[string]*dto.DailyBucket) []dto.DailyBucket {
	days := make([]string, 0, len(index))
	for day := range index {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]dto.DailyBucket, 0, len(days))
	for _, day := range days {
		out = append(out, *index[day])
	}
	return out
}

func sortedMethods(index map[string]*dto.MethodBreakdown) []dto.MethodBreakdown {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]dto.MethodBreakdown, 0, len(keys))
	for _, key := range keys {
		out = append(out, *index[key])
	}
	return out
}

func sortedStatuses(index map[string]*dto.StatusBreakdown) []dto.StatusBreakdown {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]dto.StatusBreakdown, 0, len(keys))
	for _, key := range keys {
		out = append(out, *index[key])
	}
	return out
}

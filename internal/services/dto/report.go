package dto

type ReportRequest struct {
	DateFrom string `form:"date_from" binding:"required"`
	DateTo   string `form:"date_to" binding:"required"`
}

type DailyBucket struct {
	Date      string  `json:"date"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
	Count     int64   `json:"count"`
}

type HourlyBucket struct {
	Hour      int     `json:"hour"`
	Collected float64 `json:"collected"`
	Count     int64   `json:"count"`
}

type MethodBreakdown struct {
	Method    string  `json:"method"`
	Collected float64 `json:"collected"`
	Count     int64   `json:"count"`
}

type StatusBreakdown struct {
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

type CollectionReportResponse struct {
	DateFrom       string            `json:"date_from"`
	DateTo         string            `json:"date_to"`
	TotalCollected float64           `json:"total_collected"`
	TotalPending   float64           `json:"total_pending"`
	PaymentCount   int64             `json:"payment_count"`
	Daily          []DailyBucket     `json:"daily"`
	ByMethod       []MethodBreakdown `json:"by_method"`
	ByStatus       []StatusBreakdown `json:"by_status"`
}

type DailyCashReportResponse struct {
	Date           string            `json:"date"`
	TotalCollected float64           `json:"total_collected"`
	PaymentCount   int64             `json:"payment_count"`
	Hourly         []HourlyBucket    `json:"hourly"`
	ByMethod       []MethodBreakdown `json:"by_method"`
}

package model

import "time"

// AgingBucket is one row of the aging structure.
type AgingBucket struct {
	Bucket string  `json:"bucket"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// CategoryTotals aggregates invoices of one overdue category.
type CategoryTotals struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// DashboardSummary is /reports/dashboard/summary and the "summary" part of /reports/summary.
type DashboardSummary struct {
	TotalReceivables        float64                   `json:"totalReceivables"`
	OverdueReceivables      float64                   `json:"overdueReceivables"`
	OverduePercentage       float64                   `json:"overduePercentage,omitempty"`
	CurrentReceivables      float64                   `json:"currentReceivables,omitempty"`
	AveragePaymentDelayDays float64                   `json:"averagePaymentDelayDays,omitempty"`
	TotalInvoicesCount      int                       `json:"totalInvoicesCount,omitempty"`
	OverdueInvoicesCount    int                       `json:"overdueInvoicesCount,omitempty"`
	AgingStructure          []AgingBucket             `json:"agingStructure"`
	TurnoverRatio           float64                   `json:"turnoverRatio,omitempty"`
	AveragePaymentDays      float64                   `json:"averagePaymentDays,omitempty"`
	RecommendationsSummary  map[string]CategoryTotals `json:"recommendationsSummary,omitempty"`
}

// Trend of receivables over the requested period.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// DynamicsItem is the debt at the end of one "YYYY-MM" period.
type DynamicsItem struct {
	Period      string  `json:"period"`
	TotalDebt   float64 `json:"totalDebt"`
	OverdueDebt float64 `json:"overdueDebt"`
}

// DynamicsSummary describes the whole requested range.
type DynamicsSummary struct {
	StartPeriod string `json:"startPeriod"`
	EndPeriod   string `json:"endPeriod"`
	Trend       Trend  `json:"trend"`
}

// Dynamics is /reports/receivables-dynamics.
type Dynamics struct {
	Dynamics []DynamicsItem  `json:"dynamics"`
	Summary  DynamicsSummary `json:"summary"`
}

// DynamicsParams filter /reports/receivables-dynamics. Zero times are omitted.
type DynamicsParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// StructureItem is a share of receivables within one grouping. Exactly one of
// Bucket, ServiceType or Manager is set depending on the grouping.
type StructureItem struct {
	Bucket      string  `json:"bucket,omitempty"`
	ServiceType string  `json:"serviceType,omitempty"`
	Manager     string  `json:"manager,omitempty"`
	Amount      float64 `json:"amount"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// Structure is /reports/receivables-structure.
type Structure struct {
	ByAgingBucket []StructureItem `json:"byAgingBucket"`
	ByServiceType []StructureItem `json:"byServiceType"`
	ByManager     []StructureItem `json:"byManager"`
}

// ConcentrationCustomer is one debtor in the concentration analysis.
type ConcentrationCustomer struct {
	CustomerID          string  `json:"customerId"`
	CustomerName        string  `json:"customerName"`
	CustomerUNP         string  `json:"customerUnp"`
	TotalDebt           float64 `json:"totalDebt"`
	OverdueDebt         float64 `json:"overdueDebt"`
	InvoiceCount        int     `json:"invoiceCount"`
	OldestDebtDays      int     `json:"oldestDebtDays"`
	PercentageOfTotal   float64 `json:"percentageOfTotal"`
	PercentageOfOverdue float64 `json:"percentageOfOverdue"`
}

// ConcentrationSummary aggregates the concentration analysis.
type ConcentrationSummary struct {
	TotalCustomers     int     `json:"totalCustomers"`
	TotalDebt          float64 `json:"totalDebt"`
	TotalOverdueDebt   float64 `json:"totalOverdueDebt"`
	AsOfDate           string  `json:"asOfDate"`
	MaxConcentration   float64 `json:"maxConcentration"`
	Top5Concentration  float64 `json:"top5Concentration"`
	Top10Concentration float64 `json:"top10Concentration"`
}

// Concentration is /reports/debt-concentration.
type Concentration struct {
	Customers []ConcentrationCustomer `json:"customers"`
	Summary   ConcentrationSummary    `json:"summary"`
}

// ConcentrationParams filter /reports/debt-concentration. Zero values are omitted.
type ConcentrationParams struct {
	AsOfDate      time.Time
	MinPercentage float64
	Limit         int
}

// SummaryReport is /reports/summary.
type SummaryReport struct {
	Summary     DashboardSummary `json:"summary"`
	Dynamics    Dynamics         `json:"dynamics"`
	Structure   Structure        `json:"structure"`
	GeneratedAt string           `json:"generatedAt"`
}

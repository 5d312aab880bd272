package model

import "time"

// Customer is a debtor as listed by /customers.
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	INN         string    `json:"inn,omitempty"`
	ContactInfo *string   `json:"contactInfo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CustomerPage is a page of /customers.
type CustomerPage struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}

// UpdateCustomer is the PUT /customers/{id} request body.
type UpdateCustomer struct {
	Name        *string `json:"name,omitempty"`
	ContactInfo *string `json:"contactInfo,omitempty"`
}

// CustomerInvoice is an invoice shown on the debtor card.
type CustomerInvoice struct {
	ID                string  `json:"id"`
	InvoiceNumber     string  `json:"invoiceNumber"`
	TotalAmount       float64 `json:"totalAmount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	DueDate           string  `json:"dueDate"`
	DaysOverdue       int     `json:"daysOverdue"`
	OverdueCategory   string  `json:"overdueCategory"`
	Status            string  `json:"status"`
}

// CustomerStatistics summarises a debtor's payment history.
type CustomerStatistics struct {
	TotalInvoices       int     `json:"totalInvoices"`
	TotalDebt           float64 `json:"totalDebt"`
	OverdueDebt         float64 `json:"overdueDebt"`
	PaidOnTimeCount     int     `json:"paidOnTimeCount"`
	PaidLateCount       int     `json:"paidLateCount"`
	AveragePaymentDelay float64 `json:"averagePaymentDelay"`
	OnTimePaymentRate   float64 `json:"onTimePaymentRate"`
}

// RiskFactor contributes to the risk score.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Description string  `json:"description"`
	Impact      string  `json:"impact"` // POSITIVE, NEGATIVE, NEUTRAL
	Weight      float64 `json:"weight"`
}

// RiskAssessment is the server-computed debtor risk.
type RiskAssessment struct {
	Level   string       `json:"level"` // LOW, MEDIUM, HIGH, CRITICAL
	Score   float64      `json:"score"`
	Factors []RiskFactor `json:"factors"`
}

// CustomerDetails is /customers/{id}.
type CustomerDetails struct {
	Customer
	PaymentGrade   string             `json:"paymentGrade,omitempty"` // A..F
	Statistics     CustomerStatistics `json:"statistics"`
	Risk           *RiskAssessment    `json:"riskAssessment,omitempty"`
	Invoices       []CustomerInvoice  `json:"invoices"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// DebtWorkRecord is one collections action taken against a debtor.
type DebtWorkRecord struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	InvoiceID       string     `json:"invoiceId,omitempty"`
	ActionType      string     `json:"actionType"`
	ActionDate      time.Time  `json:"actionDate"`
	PerformedBy     string     `json:"performedBy"`
	PerformedByName string     `json:"performedByName,omitempty"`
	Result          string     `json:"result"`
	Description     string     `json:"description,omitempty"`
	NextActionDate  *time.Time `json:"nextActionDate,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewDebtWork is the POST /customers/{id}/debt-work request body.
type NewDebtWork struct {
	InvoiceID      string     `json:"invoiceId,omitempty"`
	ActionType     string     `json:"actionType"`
	ActionDate     time.Time  `json:"actionDate"`
	Result         string     `json:"result"`
	Description    string     `json:"description,omitempty"`
	NextActionDate *time.Time `json:"nextActionDate,omitempty"`
	Amount         *float64   `json:"amount,omitempty"`
}

// DebtWorkActionTypes are the action types accepted by the API.
var DebtWorkActionTypes = []string{
	"CALL", "EMAIL", "SMS", "LETTER", "CLAIM", "COURT_CLAIM",
	"COURT_DECISION", "EXECUTION", "SETTLEMENT", "PAYMENT_PLAN", "OTHER",
}

// DebtWorkResults are the results accepted by the API.
var DebtWorkResults = []string{
	"CONTACTED", "NO_CONTACT", "PROMISED_PAY", "REFUSED", "PARTIAL_PAY",
	"FULL_PAY", "IN_PROGRESS", "COMPLETED", "CANCELLED",
}

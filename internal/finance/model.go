package finance

import (
	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Summary is the headline view of a date range. RevenuePerAppointment is
// defined as 0 when there are no appointments in range, never an error.
type Summary struct {
	StartDate             types.Date      `json:"start_date"`
	EndDate               types.Date      `json:"end_date"`
	Revenue               decimal.Decimal `json:"revenue"`
	Expenses              decimal.Decimal `json:"expenses"`
	NetProfit             decimal.Decimal `json:"net_profit"`
	AppointmentCount      int             `json:"appointment_count"`
	RevenuePerAppointment decimal.Decimal `json:"revenue_per_appointment"`
}

// DoctorPerformanceRow is one doctor's slice of treatment revenue.
// TotalRevenue sums appointment cost snapshots, not payments received.
type DoctorPerformanceRow struct {
	DoctorID                 int64           `json:"doctor_id"`
	DoctorName               string          `json:"doctor_name"`
	Specialization           string          `json:"specialization"`
	CommissionRate           decimal.Decimal `json:"commission_rate"`
	AppointmentCount         int             `json:"appointment_count"`
	TotalRevenue             decimal.Decimal `json:"total_revenue"`
	AvgRevenuePerAppointment decimal.Decimal `json:"avg_revenue_per_appointment"`
	CommissionAmount         decimal.Decimal `json:"commission_amount"`
	NetRevenue               decimal.Decimal `json:"net_revenue"`
}

// PatientReportRow is one patient's activity in a range
type PatientReportRow struct {
	PatientID        int64           `json:"patient_id"`
	PatientName      string          `json:"patient_name"`
	AppointmentCount int             `json:"appointment_count"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	LastVisit        types.Date      `json:"last_visit"`
}

// TreatmentReportRow is one treatment's usage in a range
type TreatmentReportRow struct {
	TreatmentID   int64           `json:"treatment_id"`
	TreatmentName string          `json:"treatment_name"`
	UsageCount    int             `json:"usage_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgRevenue    decimal.Decimal `json:"avg_revenue"`
}

// MonthlyRow is one month of a yearly report. The report always carries
// all 12 months; quiet months report zeros.
type MonthlyRow struct {
	Month    int             `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// YearlyRow is one year of a multi-year comparison
type YearlyRow struct {
	Year             int             `json:"year"`
	Revenue          decimal.Decimal `json:"revenue"`
	Expenses         decimal.Decimal `json:"expenses"`
	Profit           decimal.Decimal `json:"profit"`
	AppointmentCount int             `json:"appointment_count"`
}

// CategoryRow is one expense category's spread in a range
type CategoryRow struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Sum      decimal.Decimal `json:"sum"`
	Avg      decimal.Decimal `json:"avg"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
}

// InventoryValueRow is one inventory category's stock valuation
type InventoryValueRow struct {
	Category      string          `json:"category"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgUnitPrice  decimal.Decimal `json:"avg_unit_price"`
}

// --- Ledger rows ---

// PaymentRow is the aggregator's view of a payment. A nil amount counts
// as 0 in sums.
type PaymentRow struct {
	Amount *decimal.Decimal
	Date   types.Date
}

// ExpenseRow is the aggregator's view of an expense
type ExpenseRow struct {
	Amount   *decimal.Decimal
	Date     types.Date
	Category string
}

// AppointmentRow is the aggregator's view of an appointment
type AppointmentRow struct {
	ID          int64
	PatientID   int64
	DoctorID    int64
	TreatmentID int64
	Cost        *decimal.Decimal
	Date        types.Date
}

// DoctorRow carries the doctor fields reports need
type DoctorRow struct {
	ID             int64
	Name           string
	Specialization string
	CommissionRate decimal.Decimal
}

// PatientRow carries the patient fields reports need
type PatientRow struct {
	ID   int64
	Name string
}

// TreatmentRow carries the treatment fields reports need
type TreatmentRow struct {
	ID   int64
	Name string
}

// InventoryRow is the aggregator's view of an inventory item
type InventoryRow struct {
	Category  string
	Quantity  int64
	UnitPrice *decimal.Decimal
}

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// PaymentWriter and ExpenseWriter are the persistence surfaces the
// generators need. The repositories implement them; tests use fakes.
type PaymentWriter interface {
	CreatePayment(ctx context.Context, p *Payment) error
}

type ExpenseWriter interface {
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	CreateExpense(ctx context.Context, e *Expense) error
}

// nextOccurrenceDate advances a seed date by i calendar months. When the
// target month is shorter than the seed day, the day clamps to
// min(seedDay, 28) rather than the month's true last day. Legacy ledgers
// were generated with this rule, so reports comparing against them rely
// on the dates matching exactly.
func nextOccurrenceDate(seed types.Date, i int) types.Date {
	monthIndex := int(seed.Month) + i
	year := seed.Year + (monthIndex-1)/12
	month := time.Month((monthIndex-1)%12 + 1)

	day := seed.Day
	if day > types.DaysInMonth(year, month) {
		if day > 28 {
			day = 28
		}
	}

	return types.NewDate(year, month, day)
}

// PlanRecurringExpenses returns the follow-up expenses for a seed.
// The seed itself is assumed to already exist; months=m yields m-1 rows,
// one per subsequent calendar month.
func PlanRecurringExpenses(seed *Expense, months int) []Expense {
	// Generated rows keep the seed's notes with the marker appended
	notes := "مصروف متكرر مولد تلقائياً"
	if seed.Notes != "" {
		notes = seed.Notes + " - " + notes
	}

	var planned []Expense
	for i := 1; i < months; i++ {
		planned = append(planned, Expense{
			Description:   fmt.Sprintf("%s - الشهر %d", seed.Description, i+1),
			Amount:        seed.Amount,
			ExpenseDate:   nextOccurrenceDate(seed.ExpenseDate, i),
			Category:      seed.Category,
			PaymentMethod: seed.PaymentMethod,
			Recurring:     true,
			Notes:         notes,
		})
	}
	return planned
}

// PlanInstallments splits a total into n equal payments stepping a flat
// 30 days per occurrence. Unlike the expense generator this is not
// calendar-month aware; installment terms are fixed-length. Any rounding
// remainder from the even split is accepted, not redistributed. The
// first installment is recorded as completed, the rest as pending.
func PlanInstallments(req GenerateInstallmentsRequest) []Payment {
	amount := req.TotalAmount.Div(decimal.NewFromInt(int64(req.Installments))).Round(2)

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	var planned []Payment
	for i := 0; i < req.Installments; i++ {
		status := PaymentPending
		if i == 0 {
			status = PaymentCompleted
		}
		planned = append(planned, Payment{
			PatientID:     req.PatientID,
			AppointmentID: req.AppointmentID,
			Amount:        amount,
			PaymentDate:   req.StartDate.AddDays(30 * i),
			PaymentMethod: method,
			Status:        status,
			Notes:         fmt.Sprintf("قسط %d من %d", i+1, req.Installments),
		})
	}
	return planned
}

// Generator persists planned occurrences
type Generator struct {
	payments PaymentWriter
	expenses ExpenseWriter
}

// NewGenerator creates a recurrence generator
func NewGenerator(payments PaymentWriter, expenses ExpenseWriter) *Generator {
	return &Generator{payments: payments, expenses: expenses}
}

// GenerateRecurringExpenses creates the monthly follow-ups of an existing
// expense and returns them with their assigned IDs
func (g *Generator) GenerateRecurringExpenses(ctx context.Context, expenseID int64, months int) ([]Expense, error) {
	if months < 2 {
		return nil, errors.Validation("validation failed", map[string]string{
			"months": "months must be at least 2",
		})
	}

	seed, err := g.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	planned := PlanRecurringExpenses(seed, months)
	created := make([]Expense, 0, len(planned))
	for _, e := range planned {
		e := e
		if err := g.expenses.CreateExpense(ctx, &e); err != nil {
			return nil, err
		}
		created = append(created, e)
	}

	return created, nil
}

// GenerateInstallments creates an installment plan and returns the
// payments with their assigned IDs
func (g *Generator) GenerateInstallments(ctx context.Context, req GenerateInstallmentsRequest) ([]Payment, error) {
	details := map[string]string{}
	if req.PatientID == 0 {
		details["patient_id"] = "patient_id is required"
	}
	if req.Installments < 1 {
		details["installments"] = "installments must be at least 1"
	}
	if !req.TotalAmount.IsPositive() {
		details["total_amount"] = "total_amount must be positive"
	}
	if req.StartDate.IsZero() {
		details["start_date"] = "start_date is required"
	}
	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	planned := PlanInstallments(req)
	created := make([]Payment, 0, len(planned))
	for _, p := range planned {
		p := p
		if err := g.payments.CreatePayment(ctx, &p); err != nil {
			return nil, err
		}
		created = append(created, p)
	}

	return created, nil
}

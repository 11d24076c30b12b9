package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

type fakeLedger struct {
	expenses map[int64]*Expense
	payments []*Payment
	created  []*Expense
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{expenses: map[int64]*Expense{}}
}

func (f *fakeLedger) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return nil, errors.NotFound("expense", "")
	}
	return e, nil
}

func (f *fakeLedger) CreateExpense(ctx context.Context, e *Expense) error {
	e.ID = int64(len(f.created) + 100)
	f.created = append(f.created, e)
	return nil
}

func (f *fakeLedger) CreatePayment(ctx context.Context, p *Payment) error {
	p.ID = int64(len(f.payments) + 1)
	f.payments = append(f.payments, p)
	return nil
}

func TestPlanRecurringExpensesMonthlyRollover(t *testing.T) {
	seed := &Expense{
		Description: "إيجار العيادة",
		Amount:      decimal.NewFromInt(2000),
		ExpenseDate: types.NewDate(2024, time.January, 31),
		Category:    "rent",
	}

	planned := PlanRecurringExpenses(seed, 3)

	// months=3 yields the seed plus two generated rows
	if len(planned) != 2 {
		t.Fatalf("expected 2 planned expenses, got %d", len(planned))
	}

	// February is short, so day 31 clamps to 28; March has 31 days
	// and keeps the seed day
	if got := planned[0].ExpenseDate.String(); got != "2024-02-28" {
		t.Errorf("first occurrence = %s, want 2024-02-28", got)
	}
	if got := planned[1].ExpenseDate.String(); got != "2024-03-31" {
		t.Errorf("second occurrence = %s, want 2024-03-31", got)
	}
}

func TestPlanRecurringExpensesDescriptionSuffix(t *testing.T) {
	seed := &Expense{
		Description:   "إيجار العيادة",
		Amount:        decimal.NewFromInt(2000),
		ExpenseDate:   types.NewDate(2024, time.January, 15),
		Category:      "rent",
		PaymentMethod: "bank_transfer",
		Notes:         "عقد سنوي",
	}

	planned := PlanRecurringExpenses(seed, 4)

	want := []string{
		"إيجار العيادة - الشهر 2",
		"إيجار العيادة - الشهر 3",
		"إيجار العيادة - الشهر 4",
	}
	for i, w := range want {
		if planned[i].Description != w {
			t.Errorf("occurrence %d description = %q, want %q", i, planned[i].Description, w)
		}
		if !planned[i].Amount.Equal(seed.Amount) {
			t.Errorf("occurrence %d amount = %s, want %s", i, planned[i].Amount, seed.Amount)
		}
		if !planned[i].Recurring {
			t.Errorf("occurrence %d should be marked recurring", i)
		}
		if planned[i].PaymentMethod != "bank_transfer" {
			t.Errorf("occurrence %d method = %q, want bank_transfer", i, planned[i].PaymentMethod)
		}
		if planned[i].Notes != "عقد سنوي - مصروف متكرر مولد تلقائياً" {
			t.Errorf("occurrence %d notes = %q, want seed notes with generated marker", i, planned[i].Notes)
		}
	}
}

func TestPlanRecurringExpensesYearRollover(t *testing.T) {
	seed := &Expense{
		Description: "اشتراك",
		Amount:      decimal.NewFromInt(500),
		ExpenseDate: types.NewDate(2024, time.November, 15),
		Category:    "subscriptions",
	}

	planned := PlanRecurringExpenses(seed, 4)

	want := []string{"2024-12-15", "2025-01-15", "2025-02-15"}
	for i, w := range want {
		if got := planned[i].ExpenseDate.String(); got != w {
			t.Errorf("occurrence %d date = %s, want %s", i, got, w)
		}
	}
}

func TestGenerateRecurringExpenses(t *testing.T) {
	ledger := newFakeLedger()
	ledger.expenses[1] = &Expense{
		ID:          1,
		Description: "إيجار",
		Amount:      decimal.NewFromInt(2000),
		ExpenseDate: types.NewDate(2024, time.January, 31),
		Category:    "rent",
	}
	g := NewGenerator(ledger, ledger)

	created, err := g.GenerateRecurringExpenses(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("GenerateRecurringExpenses: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 created expenses, got %d", len(created))
	}
	for _, e := range created {
		if e.ID == 0 {
			t.Error("created expense has no ID")
		}
	}
}

func TestGenerateRecurringExpensesTooFewMonths(t *testing.T) {
	g := NewGenerator(newFakeLedger(), newFakeLedger())

	if _, err := g.GenerateRecurringExpenses(context.Background(), 1, 1); err == nil {
		t.Error("expected validation error for months=1")
	}
}

func TestPlanInstallments(t *testing.T) {
	planned := PlanInstallments(GenerateInstallmentsRequest{
		PatientID:    7,
		TotalAmount:  decimal.NewFromInt(3000),
		Installments: 4,
		StartDate:    types.NewDate(2024, time.June, 1),
	})

	if len(planned) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(planned))
	}

	// Flat 30-day steps, not calendar months
	wantDates := []string{"2024-06-01", "2024-07-01", "2024-07-31", "2024-08-30"}
	for i, w := range wantDates {
		if got := planned[i].PaymentDate.String(); got != w {
			t.Errorf("installment %d date = %s, want %s", i+1, got, w)
		}
	}

	if planned[0].Status != PaymentCompleted {
		t.Errorf("first installment status = %s, want completed", planned[0].Status)
	}
	for i := 1; i < len(planned); i++ {
		if planned[i].Status != PaymentPending {
			t.Errorf("installment %d status = %s, want pending", i+1, planned[i].Status)
		}
	}

	for _, p := range planned {
		if !p.Amount.Equal(decimal.NewFromInt(750)) {
			t.Errorf("installment amount = %s, want 750", p.Amount)
		}
	}
}

func TestPlanInstallmentsRoundingRemainderAccepted(t *testing.T) {
	planned := PlanInstallments(GenerateInstallmentsRequest{
		PatientID:    7,
		TotalAmount:  decimal.NewFromInt(100),
		Installments: 3,
		StartDate:    types.NewDate(2024, time.June, 1),
	})

	sum := decimal.Zero
	for _, p := range planned {
		if !p.Amount.Equal(decimal.RequireFromString("33.33")) {
			t.Errorf("installment amount = %s, want 33.33", p.Amount)
		}
		sum = sum.Add(p.Amount)
	}

	// 3 x 33.33 = 99.99; the remainder is not redistributed
	diff := decimal.NewFromInt(100).Sub(sum).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.05")) {
		t.Errorf("sum %s too far from total 100", sum)
	}
}

func TestGenerateInstallments(t *testing.T) {
	ledger := newFakeLedger()
	g := NewGenerator(ledger, ledger)

	created, err := g.GenerateInstallments(context.Background(), GenerateInstallmentsRequest{
		PatientID:    7,
		TotalAmount:  decimal.NewFromInt(1200),
		Installments: 3,
		StartDate:    types.NewDate(2024, time.June, 1),
	})
	if err != nil {
		t.Fatalf("GenerateInstallments: %v", err)
	}

	if len(created) != 3 {
		t.Fatalf("expected 3 payments, got %d", len(created))
	}
	if len(ledger.payments) != 3 {
		t.Fatalf("expected 3 persisted payments, got %d", len(ledger.payments))
	}
}

func TestGenerateInstallmentsValidation(t *testing.T) {
	g := NewGenerator(newFakeLedger(), newFakeLedger())

	tests := []struct {
		name string
		req  GenerateInstallmentsRequest
	}{
		{"missing patient", GenerateInstallmentsRequest{
			TotalAmount: decimal.NewFromInt(100), Installments: 2,
			StartDate: types.NewDate(2024, time.June, 1),
		}},
		{"zero installments", GenerateInstallmentsRequest{
			PatientID: 1, TotalAmount: decimal.NewFromInt(100),
			StartDate: types.NewDate(2024, time.June, 1),
		}},
		{"non-positive amount", GenerateInstallmentsRequest{
			PatientID: 1, Installments: 2,
			StartDate: types.NewDate(2024, time.June, 1),
		}},
		{"missing start date", GenerateInstallmentsRequest{
			PatientID: 1, TotalAmount: decimal.NewFromInt(100), Installments: 2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.GenerateInstallments(context.Background(), tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

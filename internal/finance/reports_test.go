package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

type fakeLedger struct {
	payments     []PaymentRow
	expenses     []ExpenseRow
	appointments []AppointmentRow
	doctors      []DoctorRow
	patients     []PatientRow
	treatments   []TreatmentRow
	inventory    []InventoryRow
}

func inRange(d, from, to types.Date) bool {
	return !d.Before(from) && !d.After(to)
}

func (f *fakeLedger) PaymentsBetween(ctx context.Context, from, to types.Date) ([]PaymentRow, error) {
	var out []PaymentRow
	for _, p := range f.payments {
		if inRange(p.Date, from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) ExpensesBetween(ctx context.Context, from, to types.Date) ([]ExpenseRow, error) {
	var out []ExpenseRow
	for _, e := range f.expenses {
		if inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) AppointmentsBetween(ctx context.Context, from, to types.Date) ([]AppointmentRow, error) {
	var out []AppointmentRow
	for _, a := range f.appointments {
		if inRange(a.Date, from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) Doctors(ctx context.Context) ([]DoctorRow, error) {
	return f.doctors, nil
}

func (f *fakeLedger) Patients(ctx context.Context) ([]PatientRow, error) {
	return f.patients, nil
}

func (f *fakeLedger) Treatments(ctx context.Context) ([]TreatmentRow, error) {
	return f.treatments, nil
}

func (f *fakeLedger) InventoryItems(ctx context.Context) ([]InventoryRow, error) {
	return f.inventory, nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
func dp(v int64) *decimal.Decimal {
	dec := decimal.NewFromInt(v)
	return &dec
}

func date(y int, m time.Month, day int) types.Date { return types.NewDate(y, m, day) }

func TestSummary(t *testing.T) {
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(100), Date: date(2024, time.March, 1)},
			{Amount: dp(250), Date: date(2024, time.March, 15)},
			{Amount: nil, Date: date(2024, time.March, 20)},
		},
		expenses: []ExpenseRow{
			{Amount: dp(80), Date: date(2024, time.March, 10), Category: "supplies"},
		},
		appointments: []AppointmentRow{
			{ID: 1, Cost: dp(100), Date: date(2024, time.March, 1)},
			{ID: 2, Cost: dp(250), Date: date(2024, time.March, 15)},
		},
	}
	agg := NewAggregator(ledger)

	s, err := agg.Summary(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	// The nil amount counts as zero, not an error
	if !s.Revenue.Equal(d(350)) {
		t.Errorf("revenue = %s, want 350", s.Revenue)
	}
	if !s.Expenses.Equal(d(80)) {
		t.Errorf("expenses = %s, want 80", s.Expenses)
	}
	if !s.NetProfit.Equal(d(270)) {
		t.Errorf("net profit = %s, want 270", s.NetProfit)
	}
	if s.AppointmentCount != 2 {
		t.Errorf("appointment count = %d, want 2", s.AppointmentCount)
	}
	if !s.RevenuePerAppointment.Equal(d(175)) {
		t.Errorf("revenue per appointment = %s, want 175", s.RevenuePerAppointment)
	}
}

func TestSummaryAdditivity(t *testing.T) {
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(100), Date: date(2024, time.March, 5)},
			{Amount: dp(200), Date: date(2024, time.March, 15)},
			{Amount: dp(300), Date: date(2024, time.March, 25)},
		},
		expenses: []ExpenseRow{
			{Amount: dp(50), Date: date(2024, time.March, 8)},
			{Amount: dp(70), Date: date(2024, time.March, 20)},
		},
	}
	agg := NewAggregator(ledger)
	ctx := context.Background()

	whole, _ := agg.Summary(ctx, date(2024, time.March, 1), date(2024, time.March, 31))
	first, _ := agg.Summary(ctx, date(2024, time.March, 1), date(2024, time.March, 14))
	second, _ := agg.Summary(ctx, date(2024, time.March, 15), date(2024, time.March, 31))

	if !first.Revenue.Add(second.Revenue).Equal(whole.Revenue) {
		t.Errorf("revenue not additive: %s + %s != %s", first.Revenue, second.Revenue, whole.Revenue)
	}
	if !first.Expenses.Add(second.Expenses).Equal(whole.Expenses) {
		t.Errorf("expenses not additive: %s + %s != %s", first.Expenses, second.Expenses, whole.Expenses)
	}
	if !whole.NetProfit.Equal(whole.Revenue.Sub(whole.Expenses)) {
		t.Errorf("profit != revenue - expenses")
	}
}

func TestSummaryZeroDivision(t *testing.T) {
	// A standalone payment with no appointment in range: revenue is
	// nonzero but the per-appointment rate is defined as 0
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(500), Date: date(2024, time.March, 5)},
		},
	}
	agg := NewAggregator(ledger)

	s, err := agg.Summary(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if s.AppointmentCount != 0 {
		t.Fatalf("appointment count = %d, want 0", s.AppointmentCount)
	}
	if !s.RevenuePerAppointment.IsZero() {
		t.Errorf("revenue per appointment = %s, want 0", s.RevenuePerAppointment)
	}
}

func TestSummaryInclusiveBounds(t *testing.T) {
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(10), Date: date(2024, time.March, 1)},
			{Amount: dp(20), Date: date(2024, time.March, 31)},
			{Amount: dp(40), Date: date(2024, time.April, 1)},
		},
	}
	agg := NewAggregator(ledger)

	s, _ := agg.Summary(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if !s.Revenue.Equal(d(30)) {
		t.Errorf("revenue = %s, want 30 (both boundary dates included)", s.Revenue)
	}
}

func TestSummaryInvalidRange(t *testing.T) {
	agg := NewAggregator(&fakeLedger{})

	_, err := agg.Summary(context.Background(), date(2024, time.March, 31), date(2024, time.March, 1))
	if err == nil {
		t.Error("expected error when start is after end")
	}
}

func TestRevenueCountAsymmetry(t *testing.T) {
	// Revenue goes by payment date, appointment count by appointment
	// date. A paid March appointment whose payment landed in April
	// counts in March's appointments but April's revenue.
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(300), Date: date(2024, time.April, 2)},
		},
		appointments: []AppointmentRow{
			{ID: 1, Cost: dp(300), Date: date(2024, time.March, 30)},
		},
	}
	agg := NewAggregator(ledger)
	ctx := context.Background()

	march, _ := agg.Summary(ctx, date(2024, time.March, 1), date(2024, time.March, 31))
	if march.AppointmentCount != 1 || !march.Revenue.IsZero() {
		t.Errorf("march: count=%d revenue=%s, want count=1 revenue=0", march.AppointmentCount, march.Revenue)
	}

	april, _ := agg.Summary(ctx, date(2024, time.April, 1), date(2024, time.April, 30))
	if april.AppointmentCount != 0 || !april.Revenue.Equal(d(300)) {
		t.Errorf("april: count=%d revenue=%s, want count=0 revenue=300", april.AppointmentCount, april.Revenue)
	}
}

func TestDoctorPerformance(t *testing.T) {
	ledger := &fakeLedger{
		doctors: []DoctorRow{
			{ID: 1, Name: "Dr. A", CommissionRate: d(10)},
			{ID: 2, Name: "Dr. B", CommissionRate: d(20)},
			{ID: 3, Name: "Dr. C", CommissionRate: d(30)},
			{ID: 4, Name: "Dr. Idle", CommissionRate: d(5)},
		},
		appointments: []AppointmentRow{
			{ID: 1, DoctorID: 1, Cost: dp(1000), Date: date(2024, time.March, 1)},
			{ID: 2, DoctorID: 2, Cost: dp(1500), Date: date(2024, time.March, 2)},
			{ID: 3, DoctorID: 3, Cost: dp(1500), Date: date(2024, time.March, 3)},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.DoctorPerformance(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("DoctorPerformance: %v", err)
	}

	// Idle doctor is absent; B and C tie at 1500 and keep id order
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].DoctorName != "Dr. B" || rows[1].DoctorName != "Dr. C" || rows[2].DoctorName != "Dr. A" {
		t.Errorf("order = [%s %s %s], want [Dr. B Dr. C Dr. A]",
			rows[0].DoctorName, rows[1].DoctorName, rows[2].DoctorName)
	}

	// Commission: 1500 * 20 / 100 = 300, net 1200
	if !rows[0].CommissionAmount.Equal(d(300)) {
		t.Errorf("commission = %s, want 300", rows[0].CommissionAmount)
	}
	if !rows[0].NetRevenue.Equal(d(1200)) {
		t.Errorf("net revenue = %s, want 1200", rows[0].NetRevenue)
	}
}

func TestPatientReportLastVisit(t *testing.T) {
	ledger := &fakeLedger{
		patients: []PatientRow{
			{ID: 1, Name: "Omar"},
			{ID: 2, Name: "Sara"},
		},
		appointments: []AppointmentRow{
			{ID: 1, PatientID: 1, Cost: dp(100), Date: date(2024, time.March, 5)},
			{ID: 2, PatientID: 1, Cost: dp(150), Date: date(2024, time.March, 20)},
			{ID: 3, PatientID: 2, Cost: dp(400), Date: date(2024, time.March, 10)},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.PatientReport(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("PatientReport: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Sara spent more and sorts first
	if rows[0].PatientName != "Sara" {
		t.Errorf("first row = %s, want Sara", rows[0].PatientName)
	}
	if rows[1].AppointmentCount != 2 || !rows[1].TotalSpent.Equal(d(250)) {
		t.Errorf("Omar: count=%d spent=%s, want count=2 spent=250", rows[1].AppointmentCount, rows[1].TotalSpent)
	}
	if rows[1].LastVisit.String() != "2024-03-20" {
		t.Errorf("Omar last visit = %s, want 2024-03-20", rows[1].LastVisit)
	}
}

func TestTreatmentReport(t *testing.T) {
	ledger := &fakeLedger{
		treatments: []TreatmentRow{
			{ID: 1, Name: "Cleaning"},
			{ID: 2, Name: "Filling"},
		},
		appointments: []AppointmentRow{
			{ID: 1, TreatmentID: 1, Cost: dp(100), Date: date(2024, time.March, 5)},
			{ID: 2, TreatmentID: 1, Cost: dp(200), Date: date(2024, time.March, 6)},
			{ID: 3, TreatmentID: 2, Cost: dp(500), Date: date(2024, time.March, 7)},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.TreatmentReport(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("TreatmentReport: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TreatmentName != "Filling" {
		t.Errorf("first row = %s, want Filling", rows[0].TreatmentName)
	}
	if rows[1].UsageCount != 2 || !rows[1].AvgRevenue.Equal(d(150)) {
		t.Errorf("Cleaning: count=%d avg=%s, want count=2 avg=150", rows[1].UsageCount, rows[1].AvgRevenue)
	}
}

func TestMonthlyReportCompleteness(t *testing.T) {
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(1000), Date: date(2024, time.March, 10)},
			{Amount: dp(2000), Date: date(2024, time.July, 5)},
		},
		expenses: []ExpenseRow{
			{Amount: dp(400), Date: date(2024, time.July, 20)},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.MonthlyReport(context.Background(), 2024)
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}

	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}

	for i, row := range rows {
		if row.Month != i+1 {
			t.Errorf("row %d month = %d, want %d", i, row.Month, i+1)
		}
		switch row.Month {
		case 3:
			if !row.Revenue.Equal(d(1000)) || !row.Profit.Equal(d(1000)) {
				t.Errorf("march: revenue=%s profit=%s", row.Revenue, row.Profit)
			}
		case 7:
			if !row.Revenue.Equal(d(2000)) || !row.Profit.Equal(d(1600)) {
				t.Errorf("july: revenue=%s profit=%s", row.Revenue, row.Profit)
			}
		default:
			if !row.Revenue.IsZero() || !row.Expenses.IsZero() || !row.Profit.IsZero() {
				t.Errorf("month %d should be all zeros", row.Month)
			}
		}
	}
}

func TestYearlyComparisonPreservesOrder(t *testing.T) {
	ledger := &fakeLedger{
		payments: []PaymentRow{
			{Amount: dp(100), Date: date(2022, time.June, 1)},
			{Amount: dp(900), Date: date(2024, time.June, 1)},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.YearlyComparison(context.Background(), []int{2024, 2022, 2023})
	if err != nil {
		t.Fatalf("YearlyComparison: %v", err)
	}

	want := []int{2024, 2022, 2023}
	for i, y := range want {
		if rows[i].Year != y {
			t.Errorf("row %d year = %d, want %d", i, rows[i].Year, y)
		}
	}
	if !rows[0].Revenue.Equal(d(900)) || !rows[1].Revenue.Equal(d(100)) || !rows[2].Revenue.IsZero() {
		t.Errorf("revenues = [%s %s %s]", rows[0].Revenue, rows[1].Revenue, rows[2].Revenue)
	}
}

func TestExpenseAnalysis(t *testing.T) {
	ledger := &fakeLedger{
		expenses: []ExpenseRow{
			{Amount: dp(100), Date: date(2024, time.March, 1), Category: "supplies"},
			{Amount: dp(300), Date: date(2024, time.March, 5), Category: "supplies"},
			{Amount: nil, Date: date(2024, time.March, 8), Category: "supplies"},
			{Amount: dp(50), Date: date(2024, time.March, 10), Category: "utilities"},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.ExpenseAnalysis(context.Background(), date(2024, time.March, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("ExpenseAnalysis: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	supplies := rows[0]
	if supplies.Category != "supplies" {
		t.Fatalf("first category = %s, want supplies", supplies.Category)
	}
	if supplies.Count != 3 {
		t.Errorf("count = %d, want 3", supplies.Count)
	}
	if !supplies.Sum.Equal(d(400)) {
		t.Errorf("sum = %s, want 400", supplies.Sum)
	}
	// The nil amount counts as 0 in the sum but not in the average's
	// denominator: 400 / 2, not 400 / 3
	if !supplies.Avg.Equal(d(200)) {
		t.Errorf("avg = %s, want 200", supplies.Avg)
	}
	if !supplies.Min.Equal(d(100)) || !supplies.Max.Equal(d(300)) {
		t.Errorf("min/max = %s/%s, want 100/300", supplies.Min, supplies.Max)
	}
}

func TestInventoryValueReport(t *testing.T) {
	ledger := &fakeLedger{
		inventory: []InventoryRow{
			{Category: "consumables", Quantity: 10, UnitPrice: dp(5)},
			{Category: "consumables", Quantity: 20, UnitPrice: dp(3)},
			{Category: "instruments", Quantity: 2, UnitPrice: dp(400)},
			{Category: "office", Quantity: 100, UnitPrice: nil},
		},
	}
	agg := NewAggregator(ledger)

	rows, err := agg.InventoryValueReport(context.Background())
	if err != nil {
		t.Fatalf("InventoryValueReport: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// instruments 800 > consumables 110 > office 0
	if rows[0].Category != "instruments" || rows[1].Category != "consumables" || rows[2].Category != "office" {
		t.Errorf("order = [%s %s %s]", rows[0].Category, rows[1].Category, rows[2].Category)
	}
	if !rows[1].TotalValue.Equal(d(110)) {
		t.Errorf("consumables value = %s, want 110", rows[1].TotalValue)
	}
	if !rows[1].AvgUnitPrice.Equal(d(4)) {
		t.Errorf("consumables avg unit price = %s, want 4", rows[1].AvgUnitPrice)
	}
	if rows[2].TotalQuantity != 100 || !rows[2].TotalValue.IsZero() {
		t.Errorf("office quantity=%d value=%s", rows[2].TotalQuantity, rows[2].TotalValue)
	}
}

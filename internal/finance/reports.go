package finance

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Aggregator computes every financial report as a pure function of the
// ledger's current contents. No aggregate is cached: the ledger can
// change between calls and reports must always reflect it.
type Aggregator struct {
	ledger Ledger
}

// NewAggregator creates a financial aggregator
func NewAggregator(ledger Ledger) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// amount treats an absent amount as 0
func amount(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// perUnit divides a total by a count, defining division by zero as 0
func perUnit(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}

func validateRange(from, to types.Date) error {
	if from.After(to) {
		return errors.InvalidDateRange(from.String(), to.String())
	}
	return nil
}

// Summary computes revenue, expenses and profit over an inclusive date
// range. Revenue sums payments by payment date while the appointment
// count goes by appointment date; the two are deliberately independent,
// matching how the clinic has always read these numbers.
func (a *Aggregator) Summary(ctx context.Context, from, to types.Date) (*Summary, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	payments, err := a.ledger.PaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := a.ledger.ExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	appointments, err := a.ledger.AppointmentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	for _, p := range payments {
		revenue = revenue.Add(amount(p.Amount))
	}

	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(amount(e.Amount))
	}

	count := len(appointments)

	return &Summary{
		StartDate:             from,
		EndDate:               to,
		Revenue:               revenue,
		Expenses:              spent,
		NetProfit:             revenue.Sub(spent),
		AppointmentCount:      count,
		RevenuePerAppointment: perUnit(revenue, count),
	}, nil
}

// DailySnapshot is the single-day summary
func (a *Aggregator) DailySnapshot(ctx context.Context, date types.Date) (*Summary, error) {
	return a.Summary(ctx, date, date)
}

// DoctorPerformance groups appointments in range by doctor. Revenue here
// sums the appointments' cost snapshots, not payments received. Rows are
// sorted descending by total revenue; equal-revenue doctors keep their
// id order.
func (a *Aggregator) DoctorPerformance(ctx context.Context, from, to types.Date) ([]DoctorPerformanceRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	appointments, err := a.ledger.AppointmentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	doctors, err := a.ledger.Doctors(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count   int
		revenue decimal.Decimal
	}
	byDoctor := map[int64]*agg{}
	for _, ap := range appointments {
		d, ok := byDoctor[ap.DoctorID]
		if !ok {
			d = &agg{revenue: decimal.Zero}
			byDoctor[ap.DoctorID] = d
		}
		d.count++
		d.revenue = d.revenue.Add(amount(ap.Cost))
	}

	hundred := decimal.NewFromInt(100)
	rows := []DoctorPerformanceRow{}
	for _, doc := range doctors {
		d, ok := byDoctor[doc.ID]
		if !ok {
			continue
		}
		commission := d.revenue.Mul(doc.CommissionRate).Div(hundred).Round(2)
		rows = append(rows, DoctorPerformanceRow{
			DoctorID:                 doc.ID,
			DoctorName:               doc.Name,
			Specialization:           doc.Specialization,
			CommissionRate:           doc.CommissionRate,
			AppointmentCount:         d.count,
			TotalRevenue:             d.revenue,
			AvgRevenuePerAppointment: perUnit(d.revenue, d.count),
			CommissionAmount:         commission,
			NetRevenue:               d.revenue.Sub(commission),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})

	return rows, nil
}

// PatientReport groups appointments in range by patient, with the most
// recent visit date per patient. Rows are sorted descending by total
// spent; ties keep id order.
func (a *Aggregator) PatientReport(ctx context.Context, from, to types.Date) ([]PatientReportRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	appointments, err := a.ledger.AppointmentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	patients, err := a.ledger.Patients(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count     int
		spent     decimal.Decimal
		lastVisit types.Date
	}
	byPatient := map[int64]*agg{}
	for _, ap := range appointments {
		p, ok := byPatient[ap.PatientID]
		if !ok {
			p = &agg{spent: decimal.Zero}
			byPatient[ap.PatientID] = p
		}
		p.count++
		p.spent = p.spent.Add(amount(ap.Cost))
		if ap.Date.After(p.lastVisit) {
			p.lastVisit = ap.Date
		}
	}

	rows := []PatientReportRow{}
	for _, pat := range patients {
		p, ok := byPatient[pat.ID]
		if !ok {
			continue
		}
		rows = append(rows, PatientReportRow{
			PatientID:        pat.ID,
			PatientName:      pat.Name,
			AppointmentCount: p.count,
			TotalSpent:       p.spent,
			LastVisit:        p.lastVisit,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSpent.GreaterThan(rows[j].TotalSpent)
	})

	return rows, nil
}

// TreatmentReport groups appointments in range by treatment. Rows are
// sorted descending by total revenue; ties keep id order.
func (a *Aggregator) TreatmentReport(ctx context.Context, from, to types.Date) ([]TreatmentReportRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	appointments, err := a.ledger.AppointmentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	treatments, err := a.ledger.Treatments(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count   int
		revenue decimal.Decimal
	}
	byTreatment := map[int64]*agg{}
	for _, ap := range appointments {
		t, ok := byTreatment[ap.TreatmentID]
		if !ok {
			t = &agg{revenue: decimal.Zero}
			byTreatment[ap.TreatmentID] = t
		}
		t.count++
		t.revenue = t.revenue.Add(amount(ap.Cost))
	}

	rows := []TreatmentReportRow{}
	for _, tr := range treatments {
		t, ok := byTreatment[tr.ID]
		if !ok {
			continue
		}
		rows = append(rows, TreatmentReportRow{
			TreatmentID:   tr.ID,
			TreatmentName: tr.Name,
			UsageCount:    t.count,
			TotalRevenue:  t.revenue,
			AvgRevenue:    perUnit(t.revenue, t.count),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRevenue.GreaterThan(rows[j].TotalRevenue)
	})

	return rows, nil
}

// MonthlyReport returns exactly 12 rows for a year, in month order.
// Months without transactions report zeros rather than being absent.
func (a *Aggregator) MonthlyReport(ctx context.Context, year int) ([]MonthlyRow, error) {
	from := types.NewDate(year, time.January, 1)
	to := types.NewDate(year, time.December, 31)

	payments, err := a.ledger.PaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := a.ledger.ExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rows := make([]MonthlyRow, 12)
	for m := 0; m < 12; m++ {
		rows[m] = MonthlyRow{
			Month:    m + 1,
			Revenue:  decimal.Zero,
			Expenses: decimal.Zero,
			Profit:   decimal.Zero,
		}
	}

	for _, p := range payments {
		m := int(p.Date.Month) - 1
		rows[m].Revenue = rows[m].Revenue.Add(amount(p.Amount))
	}
	for _, e := range expenses {
		m := int(e.Date.Month) - 1
		rows[m].Expenses = rows[m].Expenses.Add(amount(e.Amount))
	}
	for m := range rows {
		rows[m].Profit = rows[m].Revenue.Sub(rows[m].Expenses)
	}

	return rows, nil
}

// YearlyComparison returns one row per requested year, preserving the
// input order
func (a *Aggregator) YearlyComparison(ctx context.Context, years []int) ([]YearlyRow, error) {
	rows := make([]YearlyRow, 0, len(years))

	for _, year := range years {
		from := types.NewDate(year, time.January, 1)
		to := types.NewDate(year, time.December, 31)

		payments, err := a.ledger.PaymentsBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		expenses, err := a.ledger.ExpensesBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		appointments, err := a.ledger.AppointmentsBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}

		revenue := decimal.Zero
		for _, p := range payments {
			revenue = revenue.Add(amount(p.Amount))
		}
		spent := decimal.Zero
		for _, e := range expenses {
			spent = spent.Add(amount(e.Amount))
		}

		rows = append(rows, YearlyRow{
			Year:             year,
			Revenue:          revenue,
			Expenses:         spent,
			Profit:           revenue.Sub(spent),
			AppointmentCount: len(appointments),
		})
	}

	return rows, nil
}

// ExpenseAnalysis breaks expenses in range down by category. Absent
// amounts count as 0 in sums but do not dilute the average. Rows are
// sorted descending by sum; ties keep first-seen order.
func (a *Aggregator) ExpenseAnalysis(ctx context.Context, from, to types.Date) ([]CategoryRow, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	expenses, err := a.ledger.ExpensesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count    int
		priced   int
		sum      decimal.Decimal
		min, max decimal.Decimal
	}
	byCategory := map[string]*agg{}
	var order []string
	for _, e := range expenses {
		c, ok := byCategory[e.Category]
		if !ok {
			c = &agg{sum: decimal.Zero}
			byCategory[e.Category] = c
			order = append(order, e.Category)
		}
		c.count++
		if e.Amount == nil {
			continue
		}
		v := *e.Amount
		c.sum = c.sum.Add(v)
		if c.priced == 0 || v.LessThan(c.min) {
			c.min = v
		}
		if c.priced == 0 || v.GreaterThan(c.max) {
			c.max = v
		}
		c.priced++
	}

	rows := []CategoryRow{}
	for _, cat := range order {
		c := byCategory[cat]
		rows = append(rows, CategoryRow{
			Category: cat,
			Count:    c.count,
			Sum:      c.sum,
			Avg:      perUnit(c.sum, c.priced),
			Min:      c.min,
			Max:      c.max,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Sum.GreaterThan(rows[j].Sum)
	})

	return rows, nil
}

// InventoryValueReport values current stock by category, sorted
// descending by total value
func (a *Aggregator) InventoryValueReport(ctx context.Context) ([]InventoryValueRow, error) {
	items, err := a.ledger.InventoryItems(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count    int
		priced   int
		quantity int64
		value    decimal.Decimal
		prices   decimal.Decimal
	}
	byCategory := map[string]*agg{}
	var order []string
	for _, it := range items {
		c, ok := byCategory[it.Category]
		if !ok {
			c = &agg{value: decimal.Zero, prices: decimal.Zero}
			byCategory[it.Category] = c
			order = append(order, it.Category)
		}
		c.count++
		c.quantity += it.Quantity
		if it.UnitPrice != nil {
			c.value = c.value.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
			c.prices = c.prices.Add(*it.UnitPrice)
			c.priced++
		}
	}

	rows := []InventoryValueRow{}
	for _, cat := range order {
		c := byCategory[cat]
		rows = append(rows, InventoryValueRow{
			Category:      cat,
			ItemCount:     c.count,
			TotalQuantity: c.quantity,
			TotalValue:    c.value,
			AvgUnitPrice:  perUnit(c.prices, c.priced),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalValue.GreaterThan(rows[j].TotalValue)
	})

	return rows, nil
}

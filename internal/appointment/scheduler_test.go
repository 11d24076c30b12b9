package appointment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/config"
	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

type fakeStore struct {
	booked     map[string][]types.TimeOfDay
	treatments map[int64]*TreatmentSnapshot
	doctors    map[int64]bool
	patients   map[int64]bool
	inserted   []*Appointment
	insertErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		booked:     map[string][]types.TimeOfDay{},
		treatments: map[int64]*TreatmentSnapshot{},
		doctors:    map[int64]bool{},
		patients:   map[int64]bool{},
	}
}

func dayKey(doctorID int64, date types.Date) string {
	return fmt.Sprintf("%d|%s", doctorID, date)
}

func (f *fakeStore) BookedTimes(ctx context.Context, doctorID int64, date types.Date) ([]types.TimeOfDay, error) {
	return f.booked[dayKey(doctorID, date)], nil
}

func (f *fakeStore) Insert(ctx context.Context, a *Appointment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	a.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, a)
	key := dayKey(a.DoctorID, a.Date)
	f.booked[key] = append(f.booked[key], a.Time)
	return nil
}

func (f *fakeStore) TreatmentSnapshot(ctx context.Context, id int64) (*TreatmentSnapshot, error) {
	t, ok := f.treatments[id]
	if !ok {
		return nil, errors.NotFound("treatment", fmt.Sprintf("%d", id))
	}
	return t, nil
}

func (f *fakeStore) DoctorActive(ctx context.Context, id int64) (bool, error) {
	active, ok := f.doctors[id]
	if !ok {
		return false, errors.NotFound("doctor", fmt.Sprintf("%d", id))
	}
	return active, nil
}

func (f *fakeStore) PatientExists(ctx context.Context, id int64) (bool, error) {
	return f.patients[id], nil
}

func testConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		WorkdayStartHour: 9,
		WorkdayEndHour:   17,
		SlotMinutes:      30,
	}
}

func testStore() *fakeStore {
	store := newFakeStore()
	store.doctors[1] = true
	store.patients[1] = true
	store.treatments[1] = &TreatmentSnapshot{
		ID:        1,
		Name:      "Cleaning",
		BasePrice: decimal.NewFromInt(150),
		Active:    true,
	}
	return store
}

func TestAvailableSlots(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())
	date := types.NewDate(2024, time.March, 15)

	slots, err := engine.AvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	// 9:00 to 17:00 in 30 minute steps is 16 open slots on an empty day
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0].String() != "09:00" {
		t.Errorf("first slot = %s, want 09:00", slots[0])
	}
	if slots[15].String() != "16:30" {
		t.Errorf("last slot = %s, want 16:30", slots[15])
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Before(slots[i]) {
			t.Errorf("slots out of order at %d: %s before %s", i, slots[i-1], slots[i])
		}
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	store := testStore()
	date := types.NewDate(2024, time.March, 15)
	store.booked[dayKey(1, date)] = []types.TimeOfDay{
		types.NewTimeOfDay(10, 0),
		types.NewTimeOfDay(14, 30),
	}
	engine := NewEngine(store, testConfig())

	slots, err := engine.AvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	if len(slots) != 14 {
		t.Fatalf("expected 14 open slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.String() == "10:00" || s.String() == "14:30" {
			t.Errorf("booked time %s should not be offered", s)
		}
	}
}

func TestAvailableSlotsFullyBookedDay(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())
	date := types.NewDate(2024, time.March, 15)

	var all []types.TimeOfDay
	for s := types.NewTimeOfDay(9, 0); s.Before(types.NewTimeOfDay(17, 0)); s = s.AddMinutes(30) {
		all = append(all, s)
	}
	store.booked[dayKey(1, date)] = all

	slots, err := engine.AvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if slots == nil {
		t.Fatal("expected empty non-nil slice for a fully booked day")
	}
	if len(slots) != 0 {
		t.Errorf("expected no open slots, got %d", len(slots))
	}
}

func TestAvailableSlotsInactiveDoctor(t *testing.T) {
	store := testStore()
	store.doctors[2] = false
	engine := NewEngine(store, testConfig())

	slots, err := engine.AvailableSlots(context.Background(), 2, types.NewDate(2024, time.March, 15))
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Errorf("inactive doctor should have no open slots, got %v", slots)
	}
}

func TestScheduleGridMarksBooked(t *testing.T) {
	store := testStore()
	date := types.NewDate(2024, time.March, 15)
	store.booked[dayKey(1, date)] = []types.TimeOfDay{
		types.NewTimeOfDay(10, 0),
		types.NewTimeOfDay(14, 30),
	}
	engine := NewEngine(store, testConfig())

	grid, err := engine.ScheduleGrid(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("ScheduleGrid: %v", err)
	}

	// The grid always covers the full day
	if len(grid) != 16 {
		t.Fatalf("expected 16 grid slots, got %d", len(grid))
	}

	unavailable := map[string]bool{}
	for _, s := range grid {
		if !s.Available {
			unavailable[s.Time.String()] = true
		}
	}
	if len(unavailable) != 2 || !unavailable["10:00"] || !unavailable["14:30"] {
		t.Errorf("unavailable slots = %v, want 10:00 and 14:30", unavailable)
	}
}

func TestScheduleGridInactiveDoctor(t *testing.T) {
	store := testStore()
	store.doctors[2] = false
	engine := NewEngine(store, testConfig())

	grid, err := engine.ScheduleGrid(context.Background(), 2, types.NewDate(2024, time.March, 15))
	if err != nil {
		t.Fatalf("ScheduleGrid: %v", err)
	}
	if len(grid) != 16 {
		t.Fatalf("expected 16 grid slots, got %d", len(grid))
	}
	for _, s := range grid {
		if s.Available {
			t.Errorf("slot %s should be unavailable for an inactive doctor", s.Time)
		}
	}
}

func TestHasConflict(t *testing.T) {
	store := testStore()
	date := types.NewDate(2024, time.March, 15)
	store.booked[dayKey(1, date)] = []types.TimeOfDay{types.NewTimeOfDay(11, 0)}
	engine := NewEngine(store, testConfig())

	conflict, err := engine.HasConflict(context.Background(), 1, date, types.NewTimeOfDay(11, 0))
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if !conflict {
		t.Error("expected conflict at 11:00")
	}

	conflict, err = engine.HasConflict(context.Background(), 1, date, types.NewTimeOfDay(11, 30))
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if conflict {
		t.Error("expected no conflict at 11:30")
	}
}

func TestBook(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())

	a, err := engine.Book(context.Background(), BookRequest{
		PatientID:   1,
		DoctorID:    1,
		TreatmentID: 1,
		Date:        types.NewDate(2024, time.March, 15),
		Time:        types.NewTimeOfDay(10, 0),
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if !a.Cost.Equal(decimal.NewFromInt(150)) {
		t.Errorf("cost = %s, want 150", a.Cost)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 inserted appointment, got %d", len(store.inserted))
	}
}

func TestBookCostSnapshotIgnoresLaterPriceChange(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())

	a, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 1, TreatmentID: 1,
		Date: types.NewDate(2024, time.March, 15),
		Time: types.NewTimeOfDay(10, 0),
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	store.treatments[1].BasePrice = decimal.NewFromInt(500)

	if !a.Cost.Equal(decimal.NewFromInt(150)) {
		t.Errorf("cost changed after booking: %s", a.Cost)
	}
}

func TestBookConflict(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())
	date := types.NewDate(2024, time.March, 15)
	store.booked[dayKey(1, date)] = []types.TimeOfDay{types.NewTimeOfDay(10, 0)}

	_, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 1, TreatmentID: 1,
		Date: date, Time: types.NewTimeOfDay(10, 0),
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !errors.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestBookRaceLostAtInsert(t *testing.T) {
	// The precheck passes but the insert hits the unique index
	store := testStore()
	store.insertErr = errors.Conflict("slot is already booked")
	engine := NewEngine(store, testConfig())

	_, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 1, TreatmentID: 1,
		Date: types.NewDate(2024, time.March, 15),
		Time: types.NewTimeOfDay(10, 0),
	})
	if !errors.IsConflict(err) {
		t.Errorf("expected conflict from insert, got %v", err)
	}
}

func TestBookInactiveTreatment(t *testing.T) {
	store := testStore()
	store.treatments[2] = &TreatmentSnapshot{
		ID: 2, Name: "Retired", BasePrice: decimal.NewFromInt(80), Active: false,
	}
	engine := NewEngine(store, testConfig())

	_, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 1, TreatmentID: 2,
		Date: types.NewDate(2024, time.March, 15),
		Time: types.NewTimeOfDay(10, 0),
	})
	if err == nil {
		t.Fatal("expected inactive treatment error")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "INACTIVE_TREATMENT" {
		t.Errorf("expected INACTIVE_TREATMENT, got %v", err)
	}
}

func TestBookInactiveDoctor(t *testing.T) {
	store := testStore()
	store.doctors[2] = false
	engine := NewEngine(store, testConfig())

	_, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 2, TreatmentID: 1,
		Date: types.NewDate(2024, time.March, 15),
		Time: types.NewTimeOfDay(10, 0),
	})
	if !errors.IsConflict(err) {
		t.Errorf("expected conflict for inactive doctor, got %v", err)
	}
}

func TestBookOffGridTimes(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())
	date := types.NewDate(2024, time.March, 15)

	tests := []struct {
		name    string
		time    types.TimeOfDay
		wantErr bool
	}{
		{"valid first slot", types.NewTimeOfDay(9, 0), false},
		{"valid last slot", types.NewTimeOfDay(16, 30), false},
		{"before opening", types.NewTimeOfDay(8, 30), true},
		{"at closing", types.NewTimeOfDay(17, 0), true},
		{"off grid", types.NewTimeOfDay(10, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Book(context.Background(), BookRequest{
				PatientID: 1, DoctorID: 1, TreatmentID: 1,
				Date: date, Time: tt.time,
			})
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for %s", tt.time)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %s: %v", tt.time, err)
			}
		})
	}
}

func TestCancelledSlotReappears(t *testing.T) {
	store := testStore()
	engine := NewEngine(store, testConfig())
	date := types.NewDate(2024, time.March, 15)

	_, err := engine.Book(context.Background(), BookRequest{
		PatientID: 1, DoctorID: 1, TreatmentID: 1,
		Date: date, Time: types.NewTimeOfDay(10, 0),
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Cancelling removes the time from the occupied set
	store.booked[dayKey(1, date)] = nil

	conflict, err := engine.HasConflict(context.Background(), 1, date, types.NewTimeOfDay(10, 0))
	if err != nil {
		t.Fatalf("HasConflict: %v", err)
	}
	if conflict {
		t.Error("cancelled slot should be bookable again")
	}

	slots, err := engine.AvailableSlots(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	found := false
	for _, s := range slots {
		if s.String() == "10:00" {
			found = true
		}
	}
	if !found {
		t.Error("cancelled slot should reappear in the open slots")
	}
}

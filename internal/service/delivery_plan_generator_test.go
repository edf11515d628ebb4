package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
)

func newTestGenerator(calendar CalendarProvider) *DeliveryPlanGenerator {
	return NewDeliveryPlanGenerator(calendar, testFulfillmentConfig())
}

func TestParseDeliveryPolicy(t *testing.T) {
	cases := map[string]DeliveryPolicy{
		"once":         PolicyOnce,
		" Interval ":   PolicyInterval,
		"solar_term":   PolicySolarTerm,
		"SOLAR_TERM  ": PolicySolarTerm,
	}
	for raw, want := range cases {
		got, err := ParseDeliveryPolicy(raw)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v err %v", raw, got, err)
		}
		if got.String() == "unknown" {
			t.Fatalf("policy %v should have a storage tag", got)
		}
	}
	if _, err := ParseDeliveryPolicy("weekly"); !errors.Is(err, ErrInvalidDeliveryPolicy) {
		t.Fatalf("expected invalid policy, got %v", err)
	}
}

func TestGenerateIntervalSpacing(t *testing.T) {
	g := newTestGenerator(nil)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, testLocation)
	windows, err := g.Generate(context.Background(), GeneratePlanInput{
		Policy:        PolicyInterval,
		Quantity:      1,
		MaxDeliveries: 3,
		IntervalDays:  30,
		BaseDate:      base,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	wantDays := []string{"2025-01-01", "2025-01-31", "2025-03-02"}
	for i, w := range windows {
		if got := w.Start.Format("2006-01-02"); got != wantDays[i] {
			t.Fatalf("window %d start: want %s got %s", i, wantDays[i], got)
		}
		if !w.End.Equal(w.Start.AddDate(0, 0, 7)) {
			t.Fatalf("window %d end should be start+7d: %v", i, w.End)
		}
		if w.Sequence != i+1 || w.Unit != 1 {
			t.Fatalf("unexpected sequence/unit: %+v", w)
		}
	}
	if windows[1].Note != "第2期" {
		t.Fatalf("unexpected note: %s", windows[1].Note)
	}
}

func TestGenerateReplicatesPerUnit(t *testing.T) {
	g := newTestGenerator(nil)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, testLocation)
	windows, err := g.Generate(context.Background(), GeneratePlanInput{
		Policy:        PolicyInterval,
		Quantity:      2,
		MaxDeliveries: 2,
		IntervalDays:  14,
		BaseDate:      base,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(windows) != 4 {
		t.Fatalf("expected quantity*max windows, got %d", len(windows))
	}
	if windows[2].Unit != 2 || windows[2].Sequence != 1 || !windows[2].Start.Equal(windows[0].Start) {
		t.Fatalf("second unit should restart numbering at base: %+v", windows[2])
	}
}

func TestGenerateOnceCutoff(t *testing.T) {
	g := newTestGenerator(nil)
	before := time.Date(2025, 3, 10, 15, 59, 0, 0, testLocation)
	after := time.Date(2025, 3, 10, 16, 0, 0, 0, testLocation)

	windows, err := g.Generate(context.Background(), GeneratePlanInput{Policy: PolicyOnce, Quantity: 1, BaseDate: before})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(windows) != 1 || windows[0].Start.Day() != 10 {
		t.Fatalf("before cutoff should start same day: %+v", windows)
	}
	if !windows[0].End.Equal(windows[0].Start.AddDate(0, 0, 3)) {
		t.Fatalf("once window should last 3 days: %+v", windows[0])
	}

	windows, err = g.Generate(context.Background(), GeneratePlanInput{Policy: PolicyOnce, Quantity: 3, BaseDate: after})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("once policy should yield one window per unit, got %d", len(windows))
	}
	if windows[0].Start.Day() != 11 {
		t.Fatalf("at cutoff should start next day: %v", windows[0].Start)
	}
}

func TestGenerateConvertsBaseToBusinessTimezone(t *testing.T) {
	g := newTestGenerator(nil)
	// 09:00 UTC 即北京时间 17:00，已过截单时间
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	windows, err := g.Generate(context.Background(), GeneratePlanInput{Policy: PolicyOnce, Quantity: 1, BaseDate: base})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if windows[0].Start.Day() != 11 {
		t.Fatalf("cutoff should be evaluated in business timezone: %v", windows[0].Start)
	}
}

func TestGenerateSolarTermPadsWithFallbackInterval(t *testing.T) {
	spring := time.Date(2025, 2, 3, 22, 10, 0, 0, testLocation)
	rain := time.Date(2025, 2, 18, 18, 6, 0, 0, testLocation)
	calendar := fakeCalendar{terms: []models.SolarTerm{
		{ID: 1, Name: "立春", Year: 2025, StartTime: spring, EndTime: spring.AddDate(0, 0, 15), IsActive: true},
		{ID: 2, Name: "雨水", Year: 2025, StartTime: rain, EndTime: rain.AddDate(0, 0, 15), IsActive: true},
	}}
	g := newTestGenerator(calendar)
	base := time.Date(2025, 1, 20, 9, 0, 0, 0, testLocation)

	windows, err := g.Generate(context.Background(), GeneratePlanInput{
		Policy:        PolicySolarTerm,
		Quantity:      1,
		MaxDeliveries: 4,
		BaseDate:      base,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(windows) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(windows))
	}
	if windows[0].SolarTermID == nil || *windows[0].SolarTermID != 1 || windows[0].Note != "立春" {
		t.Fatalf("first window should follow 立春: %+v", windows[0])
	}
	if !windows[1].Start.Equal(rain) {
		t.Fatalf("second window should start at 雨水: %v", windows[1].Start)
	}
	lastEnd := windows[1].End
	if !windows[2].Start.Equal(lastEnd.AddDate(0, 0, 90)) {
		t.Fatalf("first padded window should start 90 days after last term: %v", windows[2].Start)
	}
	if !windows[3].Start.Equal(lastEnd.AddDate(0, 0, 180)) {
		t.Fatalf("second padded window should add another 90 days: %v", windows[3].Start)
	}
	if windows[2].SolarTermID != nil || windows[3].Note != "节气排期不足，按间隔补齐" {
		t.Fatalf("padded windows should be marked: %+v", windows[3])
	}
	if windows[3].Sequence != 4 {
		t.Fatalf("padding should continue numbering: %d", windows[3].Sequence)
	}
}

func TestGenerateSolarTermCalendarFailureFallsBack(t *testing.T) {
	g := newTestGenerator(fakeCalendar{err: errCalendarDown})
	base := time.Date(2025, 1, 20, 9, 0, 0, 0, testLocation)
	windows, err := g.Generate(context.Background(), GeneratePlanInput{
		Policy:        PolicySolarTerm,
		Quantity:      1,
		MaxDeliveries: 2,
		BaseDate:      base,
	})
	if err != nil {
		t.Fatalf("calendar failure should not fail generation: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if !windows[0].Start.Equal(base) || !windows[1].Start.Equal(base.AddDate(0, 0, 90)) {
		t.Fatalf("fallback should use 90-day interval from base: %v %v", windows[0].Start, windows[1].Start)
	}
}

func TestGenerateValidatesInput(t *testing.T) {
	g := newTestGenerator(nil)
	base := time.Now()
	cases := []struct {
		name  string
		input GeneratePlanInput
		want  error
	}{
		{"policy", GeneratePlanInput{Policy: 9, Quantity: 1, BaseDate: base}, ErrInvalidDeliveryPolicy},
		{"quantity", GeneratePlanInput{Policy: PolicyOnce, Quantity: 0, BaseDate: base}, ErrInvalidDeliveryQuantity},
		{"max", GeneratePlanInput{Policy: PolicyInterval, Quantity: 1, IntervalDays: 7, BaseDate: base}, ErrInvalidDeliveryMax},
		{"interval", GeneratePlanInput{Policy: PolicyInterval, Quantity: 1, MaxDeliveries: 2, BaseDate: base}, ErrInvalidDeliveryInterval},
	}
	for _, tc := range cases {
		if _, err := g.Generate(context.Background(), tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestScheduleItemWithFallbackUsesOnce(t *testing.T) {
	g := newTestGenerator(nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, testLocation)
	item := models.OrderItem{
		ID:                7,
		Quantity:          2,
		DeliveryType:      constants.DeliveryTypeInterval,
		DeliveriesPerUnit: 3,
		DeliveryInterval:  0,
	}
	windows, policy := g.scheduleItemWithFallback(context.Background(), item, base)
	if policy != constants.DeliveryTypeOnce {
		t.Fatalf("expected once fallback, got %s", policy)
	}
	if len(windows) != 2 || windows[1].Unit != 2 {
		t.Fatalf("fallback should yield one window per unit: %+v", windows)
	}
}

func TestBuildDeliveryPlansCopiesAddress(t *testing.T) {
	termID := uint(3)
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, testLocation)
	item := models.OrderItem{ID: 5, OrderID: 9}
	plans := buildDeliveryPlans(item, 42, testAddress(), []DeliveryWindow{
		{Unit: 1, Sequence: 1, Start: start, End: start.AddDate(0, 0, 7), SolarTermID: &termID, Note: "立夏"},
	})
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	plan := plans[0]
	if plan.Status != constants.DeliveryPlanStatusPending || plan.DeliveryNo != nil {
		t.Fatalf("new plans should be pending without delivery no: %+v", plan)
	}
	if plan.UserID != 42 || plan.OrderID != 9 || plan.OrderItemID != 5 {
		t.Fatalf("unexpected ownership: %+v", plan)
	}
	if plan.ReceiverName != "李四" || plan.ReceiverAddress != "漕溪北路 2 号" {
		t.Fatalf("address snapshot not applied: %+v", plan)
	}
}

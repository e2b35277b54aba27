package tracking

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"dietflow/internal/config"
	"dietflow/internal/plan"
)

func testCfg() config.TrackingConfig {
	var c config.TrackingConfig
	c.ApplyDefaults()
	return c
}

func lossProfile() Profile {
	return Profile{
		StartingWeightKg:       85,
		Goal:                   plan.GoalLoss,
		ExpectedWeeklyChangeKg: -0.5,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyze_FirstCheckIn(t *testing.T) {
	ci := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.8}
	snap, err := Analyze(ci, nil, lossProfile(), testCfg())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !almostEqual(snap.WeightChangeKg, -0.2) {
		t.Errorf("weight_change_kg = %v, want -0.2", snap.WeightChangeKg)
	}
	if !almostEqual(snap.ExpectedWeightKg, 84.5) {
		t.Errorf("expected_weight_kg = %v, want 84.5", snap.ExpectedWeightKg)
	}
	if !almostEqual(snap.VarianceKg, 0.3) {
		t.Errorf("variance_kg = %v, want 0.3", snap.VarianceKg)
	}
	if snap.IsPlateau {
		t.Errorf("first check-in can never be a plateau")
	}
	// |0.3| > 50% of the cumulative expected 0.5 kg, so off-track fires
	if !snap.IsOffTrack {
		t.Errorf("expected off-track on week 1")
	}
	// ...but one data point never triggers an adjustment
	if snap.NeedsAdjustment {
		t.Errorf("week 1 must not need adjustment regardless of variance")
	}
}

func TestAnalyze_PlateauOnSecondWeek(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()

	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.8}
	s1, err := Analyze(ci1, nil, profile, cfg)
	if err != nil {
		t.Fatalf("week 1: %v", err)
	}

	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 84.75}
	s2, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if !almostEqual(s2.WeightChangeKg, -0.05) {
		t.Errorf("weight_change_kg = %v, want -0.05", s2.WeightChangeKg)
	}
	if !s2.IsPlateau {
		t.Errorf("expected plateau on week 2")
	}
	if !s2.NeedsAdjustment {
		t.Errorf("plateau must set needs_adjustment")
	}
}

func TestAnalyze_PlateauNeedsConsecutiveSmallChanges(t *testing.T) {
	// Deltas -0.1 then +0.05, both under the 0.2 kg epsilon: plateau on
	// the second snapshot, not the first.
	cfg := testCfg()
	profile := lossProfile()

	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.9}
	s1, err := Analyze(ci1, nil, profile, cfg)
	if err != nil {
		t.Fatalf("week 1: %v", err)
	}
	if s1.IsPlateau {
		t.Errorf("first snapshot must not be a plateau")
	}

	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 84.95}
	s2, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if !almostEqual(s2.WeightChangeKg, 0.05) {
		t.Errorf("weight_change_kg = %v, want 0.05", s2.WeightChangeKg)
	}
	if !s2.IsPlateau {
		t.Errorf("expected plateau on second snapshot")
	}
}

func TestAnalyze_LargeChangeBreaksPlateau(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()

	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.0}
	s1, err := Analyze(ci1, nil, profile, cfg)
	if err != nil {
		t.Fatalf("week 1: %v", err)
	}
	// Week 1 lost a full kilo; even a tiny week 2 change is not yet two
	// consecutive small weeks.
	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 83.95}
	s2, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if s2.IsPlateau {
		t.Errorf("single small change after a big one is not a plateau")
	}
}

func TestAnalyze_AverageAndTotals(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()

	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.4}
	s1, _ := Analyze(ci1, nil, profile, cfg)
	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 84.0}
	s2, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if !almostEqual(s2.TotalChangeKg, -1.0) {
		t.Errorf("total_change_kg = %v, want -1.0", s2.TotalChangeKg)
	}
	if !almostEqual(s2.AvgWeeklyChangeKg, -0.5) {
		t.Errorf("avg_weekly_change_kg = %v, want -0.5", s2.AvgWeeklyChangeKg)
	}
	if s2.WeeksOnPlan != 2 {
		t.Errorf("weeks_on_plan = %d, want 2", s2.WeeksOnPlan)
	}
}

func TestAnalyze_FastProgressNeedsAdjustment(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()

	// Losing 1.2 kg/week against a -0.5 goal: more than double the pace.
	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 83.8}
	s1, _ := Analyze(ci1, nil, profile, cfg)
	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 82.6}
	s2, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("week 2: %v", err)
	}
	if s2.IsPlateau {
		t.Errorf("fast loss is not a plateau")
	}
	if !s2.NeedsAdjustment {
		t.Errorf("progress at double the goal pace must need adjustment")
	}
}

func TestAnalyze_MaintainUsesToleranceBand(t *testing.T) {
	cfg := testCfg()
	profile := Profile{StartingWeightKg: 70, Goal: plan.GoalMaintain, ExpectedWeeklyChangeKg: 0}

	ci := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 71.0}
	snap, err := Analyze(ci, nil, profile, cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if snap.IsOffTrack {
		t.Errorf("1 kg drift is inside the %v kg maintenance band", cfg.MaintainToleranceKg)
	}

	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 73.5}
	snap2, err := Analyze(ci2, []ProgressSnapshot{*snap}, profile, cfg)
	if err != nil {
		t.Fatalf("Analyze week 2: %v", err)
	}
	if !snap2.IsOffTrack {
		t.Errorf("3.5 kg drift must be off-track for a maintenance plan")
	}
}

func TestAnalyze_ConsistencyError(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()

	ci := &CheckIn{ID: 3, PlanID: 1, WeekNumber: 3, WeightKg: 84.0}
	_, err := Analyze(ci, nil, profile, cfg) // week 3 with no history
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}

	// Prior snapshots with a week gap are also inconsistent.
	bad := []ProgressSnapshot{{WeekNumber: 1}, {WeekNumber: 3}}
	ci4 := &CheckIn{ID: 4, PlanID: 1, WeekNumber: 3, WeightKg: 84.0}
	if _, err := Analyze(ci4, bad, profile, cfg); err == nil {
		t.Errorf("expected error for gapped prior snapshots")
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	cfg := testCfg()
	profile := lossProfile()
	ci1 := &CheckIn{ID: 1, PlanID: 1, WeekNumber: 1, WeightKg: 84.8}
	s1, _ := Analyze(ci1, nil, profile, cfg)
	ci2 := &CheckIn{ID: 2, PlanID: 1, WeekNumber: 2, WeightKg: 84.3}

	a, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Analyze(ci2, []ProgressSnapshot{*s1}, profile, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Analyze is not deterministic:\n%+v\n%+v", a, b)
	}
}

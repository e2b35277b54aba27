package tracking

import (
	"fmt"
	"math"

	"dietflow/internal/config"
	"dietflow/internal/plan"
)

// Analyze derives the progress snapshot for a check-in from the plan
// profile and every prior snapshot, oldest first. Pure: same inputs
// always yield the same snapshot, with no clock and no randomness.
//
// The first check-in's weight change is measured against the plan's
// starting weight, so week 1 already carries a real delta. Off-track
// variance is compared against the cumulative expected change to date,
// not a single week's expectation.
func Analyze(ci *CheckIn, prior []ProgressSnapshot, profile Profile, cfg config.TrackingConfig) (*ProgressSnapshot, error) {
	if len(prior) != ci.WeekNumber-1 {
		return nil, &ConsistencyError{Reason: fmt.Sprintf(
			"check-in week %d but %d prior snapshots", ci.WeekNumber, len(prior))}
	}
	for i, s := range prior {
		if s.WeekNumber != i+1 {
			return nil, &ConsistencyError{Reason: fmt.Sprintf(
				"prior snapshot %d has week %d", i, s.WeekNumber)}
		}
	}

	weeks := ci.WeekNumber
	prevWeight := profile.StartingWeightKg
	if len(prior) > 0 {
		prevWeight = prior[len(prior)-1].WeightKg
	}

	snap := &ProgressSnapshot{
		CheckInID:      ci.ID,
		PlanID:         ci.PlanID,
		WeekNumber:     weeks,
		WeightKg:       ci.WeightKg,
		WeightChangeKg: ci.WeightKg - prevWeight,
		TotalChangeKg:  ci.WeightKg - profile.StartingWeightKg,
		WeeksOnPlan:    weeks,
	}
	snap.ExpectedWeightKg = profile.StartingWeightKg + profile.ExpectedWeeklyChangeKg*float64(weeks)
	snap.VarianceKg = ci.WeightKg - snap.ExpectedWeightKg
	snap.AvgWeeklyChangeKg = snap.TotalChangeKg / float64(weeks)

	snap.IsPlateau = isPlateau(snap, prior, cfg)
	snap.IsOffTrack = isOffTrack(snap, profile, cfg)

	// Week 1 never triggers an adjustment: a single data point is not
	// enough history to act on.
	if weeks > 1 {
		snap.NeedsAdjustment = snap.IsPlateau || snap.IsOffTrack || isTooFastForPace(snap, profile, cfg)
	}
	return snap, nil
}

// isPlateau reports whether the weight change magnitude has stayed
// within the plateau epsilon for the configured number of consecutive
// check-ins, ending at this one. The first check-in is never a plateau.
func isPlateau(snap *ProgressSnapshot, prior []ProgressSnapshot, cfg config.TrackingConfig) bool {
	if snap.WeekNumber < cfg.PlateauWeeks {
		return false
	}
	if math.Abs(snap.WeightChangeKg) > cfg.PlateauEpsilonKg {
		return false
	}
	for i := 0; i < cfg.PlateauWeeks-1; i++ {
		p := prior[len(prior)-1-i]
		if math.Abs(p.WeightChangeKg) > cfg.PlateauEpsilonKg {
			return false
		}
	}
	return true
}

// isOffTrack compares the variance against a fraction of the cumulative
// expected change to date. Maintenance plans have no expected change, so
// they use a flat tolerance band instead.
func isOffTrack(snap *ProgressSnapshot, profile Profile, cfg config.TrackingConfig) bool {
	cumExpected := profile.ExpectedWeeklyChangeKg * float64(snap.WeeksOnPlan)
	if cumExpected == 0 {
		return math.Abs(snap.VarianceKg) > cfg.MaintainToleranceKg
	}
	return math.Abs(snap.VarianceKg) > cfg.OffTrackVarianceFrac*math.Abs(cumExpected)
}

// isTooFastForPace flags progress markedly faster than the goal pace
// (more than FastProgressFactor times the expected weekly change, in the
// goal direction).
func isTooFastForPace(snap *ProgressSnapshot, profile Profile, cfg config.TrackingConfig) bool {
	exp := profile.ExpectedWeeklyChangeKg
	if exp == 0 {
		return false
	}
	if snap.AvgWeeklyChangeKg*exp <= 0 {
		return false // moving against the goal, not fast progress
	}
	return math.Abs(snap.AvgWeeklyChangeKg) > cfg.FastProgressFactor*math.Abs(exp)
}

// goalDirection is -1 for loss, +1 for gain, 0 for maintain.
func goalDirection(g plan.Goal) int {
	switch g {
	case plan.GoalLoss:
		return -1
	case plan.GoalGain:
		return 1
	default:
		return 0
	}
}

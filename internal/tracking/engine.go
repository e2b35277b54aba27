package tracking

import (
	"math"

	"dietflow/internal/config"
)

// Decide applies the ordered adjustment rules to a snapshot and returns
// the adjustment to record, or nil when no change is warranted. The
// returned clamp flag reports that the safety floor overrode the raw
// rule output (also true when the clamp swallowed the whole delta and
// no adjustment is returned).
//
// Pure and idempotent: identical inputs always produce identical
// output, which is what makes retries and audits safe.
//
// Rule order encodes priority, first match wins:
//  1. plateau            -> eat less (loss) / more (gain)
//  2. slower than goal   -> push harder in the goal direction
//  3. unsafely fast      -> back off to protect lean mass
//
// The configured deltas assume a loss goal; for gain plans the sign is
// mirrored so "push harder" always means moving calories the way the
// goal needs. Maintenance plans never get a rule-based adjustment.
func Decide(snap *ProgressSnapshot, currentCalories int, profile Profile, cfg config.TrackingConfig) (*CalorieAdjustment, bool) {
	dir := goalDirection(profile.Goal)
	if dir == 0 {
		return nil, false
	}

	var (
		delta   int
		reason  AdjustmentReason
		trigger string
	)
	switch {
	case snap.IsPlateau:
		delta = applyDirection(cfg.PlateauDeltaKcal, dir)
		reason = ReasonPlateau
		trigger = "is_plateau"
	case isSlowerThanGoal(snap, profile, cfg):
		delta = applyDirection(cfg.SlowProgressDeltaKcal, dir)
		reason = ReasonSlowProgress
		trigger = "avg_weekly_change_kg"
	case isUnsafelyFast(snap, profile, cfg):
		delta = applyDirection(cfg.TooFastDeltaKcal, dir)
		reason = ReasonTooFast
		trigger = "avg_weekly_change_kg"
	default:
		return nil, false
	}

	return clamp(snap, currentCalories, delta, reason, trigger, profile, cfg)
}

// UserRequested builds a caller-initiated adjustment with an explicit
// delta, still subject to the safety clamp.
func UserRequested(snap *ProgressSnapshot, currentCalories, deltaKcal int, profile Profile, cfg config.TrackingConfig) (*CalorieAdjustment, bool) {
	return clamp(snap, currentCalories, deltaKcal, ReasonUserRequest, "user_request", profile, cfg)
}

// applyDirection mirrors a loss-calibrated delta for gain goals.
func applyDirection(lossDelta, dir int) int {
	if dir > 0 {
		return -lossDelta
	}
	return lossDelta
}

// isSlowerThanGoal: moving toward the goal at well under the expected
// pace (or not moving toward it at all). E.g. goal -0.5/week but actual
// better than -0.2/week.
func isSlowerThanGoal(snap *ProgressSnapshot, profile Profile, cfg config.TrackingConfig) bool {
	exp := profile.ExpectedWeeklyChangeKg
	if exp == 0 {
		return false
	}
	threshold := exp * cfg.SlowProgressFrac
	if exp < 0 {
		return snap.AvgWeeklyChangeKg > threshold
	}
	return snap.AvgWeeklyChangeKg < threshold
}

// isUnsafelyFast: weight moving in the goal direction faster than the
// hard safety cutoff, e.g. losing more than 1 kg/week.
func isUnsafelyFast(snap *ProgressSnapshot, profile Profile, cfg config.TrackingConfig) bool {
	exp := profile.ExpectedWeeklyChangeKg
	if exp == 0 || snap.AvgWeeklyChangeKg*exp <= 0 {
		return false
	}
	return math.Abs(snap.AvgWeeklyChangeKg) > cfg.TooFastKgPerWeek
}

// clamp enforces the safety floor and materializes the adjustment. The
// persisted delta is always the applied change, never the raw rule
// output. A delta fully swallowed by the clamp produces no record.
func clamp(snap *ProgressSnapshot, currentCalories, delta int, reason AdjustmentReason, trigger string, profile Profile, cfg config.TrackingConfig) (*CalorieAdjustment, bool) {
	if delta == 0 {
		return nil, false
	}
	floor := cfg.MinCalories
	if profile.Age >= cfg.SeniorAge && profile.BMRKcal > 0 {
		floor = int(math.Round(profile.BMRKcal * cfg.SeniorBMRFactor))
	}
	newCal := currentCalories + delta
	clamped := false
	if newCal < floor {
		newCal = floor
		clamped = true
	}
	applied := newCal - currentCalories
	if applied == 0 {
		return nil, clamped
	}
	return &CalorieAdjustment{
		PlanID:           snap.PlanID,
		CheckInID:        snap.CheckInID,
		WeekNumber:       snap.WeekNumber,
		PreviousCalories: currentCalories,
		NewCalories:      newCal,
		DeltaKcal:        applied,
		Reason:           reason,
		TriggerMetric:    trigger,
		ClampApplied:     clamped,
	}, clamped
}

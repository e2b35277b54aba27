package tracking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"dietflow/internal/config"

	"gorm.io/gorm"
)

// record appends a ledger entry. Append-only: a second adjustment for
// the same check-in is a conflict.
func record(tx *gorm.DB, adj *CalorieAdjustment) error {
	var existing CalorieAdjustment
	err := tx.Where("check_in_id = ?", adj.CheckInID).First(&existing).Error
	if err == nil {
		return &ConflictError{Reason: fmt.Sprintf(
			"an adjustment for check-in %d already exists", adj.CheckInID)}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check ledger for check-in %d: %w", adj.CheckInID, err)
	}
	if err := tx.Create(adj).Error; err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// evaluationWindow is how many snapshots past an adjustment must exist
// before its effectiveness verdict is written.
const evaluationWindow = 2

// evaluate writes the write-once effectiveness verdict for one ledger
// entry by comparing the realized weekly change in the snapshots that
// followed it against the goal pace. Re-evaluating is a conflict.
func evaluate(tx *gorm.DB, adj *CalorieAdjustment, later []ProgressSnapshot, profile Profile, cfg config.TrackingConfig) error {
	if adj.EvaluatedAt != nil {
		return &ConflictError{Reason: fmt.Sprintf(
			"adjustment %d already evaluated", adj.ID)}
	}
	if len(later) == 0 {
		return &ValidationError{Field: "later_snapshots", Reason: "no snapshots after the adjustment"}
	}
	if len(later) > evaluationWindow {
		later = later[:evaluationWindow]
	}

	var realized float64
	for _, s := range later {
		realized += s.WeightChangeKg
	}
	realized /= float64(len(later))

	effective := isEffective(realized, profile.ExpectedWeeklyChangeKg, cfg)
	notes := fmt.Sprintf("realized %.2f kg/week over %d week(s) after %+d kcal (goal pace %.2f kg/week)",
		realized, len(later), adj.DeltaKcal, profile.ExpectedWeeklyChangeKg)

	now := time.Now().UTC()
	res := tx.Model(&CalorieAdjustment{}).
		Where("id = ? AND evaluated_at IS NULL", adj.ID).
		Updates(map[string]interface{}{
			"was_effective":       effective,
			"effectiveness_notes": notes,
			"evaluated_at":        now,
		})
	if res.Error != nil {
		return fmt.Errorf("write effectiveness for adjustment %d: %w", adj.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Reason: fmt.Sprintf(
			"adjustment %d already evaluated", adj.ID)}
	}
	adj.WasEffective = &effective
	adj.EffectivenessNotes = notes
	adj.EvaluatedAt = &now
	return nil
}

// isEffective: the realized pace moves in the goal direction at a
// meaningful fraction of the expected pace. Maintenance goals count as
// effective when the weight held within the plateau epsilon.
func isEffective(realized, expected float64, cfg config.TrackingConfig) bool {
	if expected == 0 {
		return math.Abs(realized) <= cfg.PlateauEpsilonKg
	}
	if realized*expected <= 0 {
		return false
	}
	return math.Abs(realized) >= cfg.SlowProgressFrac*math.Abs(expected)
}

// evaluatePending runs the evaluation pass for every unevaluated ledger
// entry that now has a full window of later snapshots. Called at the
// tail of each submission, inside the same transaction.
func evaluatePending(tx *gorm.DB, planID uint, snaps []ProgressSnapshot, profile Profile, cfg config.TrackingConfig) error {
	var pending []CalorieAdjustment
	if err := tx.Where("plan_id = ? AND evaluated_at IS NULL", planID).
		Order("week_number ASC").Find(&pending).Error; err != nil {
		return fmt.Errorf("load pending adjustments: %w", err)
	}
	for i := range pending {
		adj := &pending[i]
		var later []ProgressSnapshot
		for _, s := range snaps {
			if s.WeekNumber > adj.WeekNumber {
				later = append(later, s)
			}
		}
		if len(later) < evaluationWindow {
			continue
		}
		if err := evaluate(tx, adj, later, profile, cfg); err != nil {
			return err
		}
	}
	return nil
}

package tracking

import (
	"errors"
	"fmt"
	"log"

	"dietflow/internal/config"
	"dietflow/internal/plan"
	"dietflow/internal/user"

	"gorm.io/gorm"
)

// Tracker runs the check-in pipeline: ingest -> analyze -> decide ->
// ledger, as one atomic unit per plan. Concurrent submissions for the
// same plan are serialized by the plan row lock; different plans never
// contend.
type Tracker struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewTracker(db *gorm.DB, cfg *config.Config) *Tracker {
	return &Tracker{DB: db, Cfg: cfg}
}

type SubmitResult struct {
	CheckIn      *CheckIn           `json:"check_in"`
	Snapshot     *ProgressSnapshot  `json:"snapshot"`
	Adjustment   *CalorieAdjustment `json:"adjustment,omitempty"`
	ClampApplied bool               `json:"clamp_applied"`
}

type HistoryResult struct {
	CheckIns    []CheckIn           `json:"checkins"`
	Snapshots   []ProgressSnapshot  `json:"snapshots"`
	Adjustments []CalorieAdjustment `json:"adjustments"`
}

// Submit processes one weekly check-in. Everything it writes (the
// check-in, its snapshot, an adjustment if one fires, the calorie
// write-back and any effectiveness verdicts that became due) commits
// together or not at all. Narrative generation happens outside, after
// the commit.
func (t *Tracker) Submit(planID uint, req *SubmitRequest) (*SubmitResult, error) {
	var result SubmitResult
	err := t.DB.Transaction(func(tx *gorm.DB) error {
		p, err := plan.GetActiveLocked(tx, planID)
		if err != nil {
			return err
		}

		ci, err := ingest(tx, planID, req)
		if err != nil {
			return err
		}

		var prior []ProgressSnapshot
		if err := tx.Where("plan_id = ?", planID).Order("week_number ASC").Find(&prior).Error; err != nil {
			return fmt.Errorf("load prior snapshots: %w", err)
		}

		profile := t.buildProfile(tx, p, ci.WeightKg)
		snap, err := Analyze(ci, prior, profile, t.Cfg.Tracking)
		if err != nil {
			return err
		}
		if err := tx.Create(snap).Error; err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}

		result.CheckIn = ci
		result.Snapshot = snap

		if snap.NeedsAdjustment {
			adj, clamped := Decide(snap, p.DailyCalories, profile, t.Cfg.Tracking)
			result.ClampApplied = clamped
			if adj != nil {
				if err := record(tx, adj); err != nil {
					return err
				}
				if err := plan.UpdateCalories(tx, planID, adj.NewCalories); err != nil {
					return err
				}
				result.Adjustment = adj
				log.Printf("[Tracker] plan %d week %d: %s adjustment %+d kcal (%d -> %d)",
					planID, snap.WeekNumber, adj.Reason, adj.DeltaKcal, adj.PreviousCalories, adj.NewCalories)
			}
		}

		all := append(prior, *snap)
		return evaluatePending(tx, planID, all, profile, t.Cfg.Tracking)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// History returns everything recorded for a plan, ascending by week.
func (t *Tracker) History(planID uint) (*HistoryResult, error) {
	if _, err := plan.Get(t.DB, planID); err != nil {
		return nil, err
	}
	var res HistoryResult
	if err := t.DB.Where("plan_id = ?", planID).Order("week_number ASC").Find(&res.CheckIns).Error; err != nil {
		return nil, fmt.Errorf("load check-ins: %w", err)
	}
	if err := t.DB.Where("plan_id = ?", planID).Order("week_number ASC").Find(&res.Snapshots).Error; err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	if err := t.DB.Where("plan_id = ?", planID).Order("week_number ASC").Find(&res.Adjustments).Error; err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}
	return &res, nil
}

// Readjust re-runs the decision rules against the latest snapshot, for
// on-demand re-evaluation outside the weekly cadence. A non-nil
// deltaKcal is a user-requested change, recorded as such but still
// clamped. Returns nil when no adjustment is warranted.
func (t *Tracker) Readjust(planID uint, deltaKcal *int) (*CalorieAdjustment, bool, error) {
	var (
		adj     *CalorieAdjustment
		clamped bool
	)
	err := t.DB.Transaction(func(tx *gorm.DB) error {
		p, err := plan.GetActiveLocked(tx, planID)
		if err != nil {
			return err
		}

		var snap ProgressSnapshot
		if err := tx.Where("plan_id = ?", planID).Order("week_number DESC").First(&snap).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{Field: "plan_id", Reason: "no check-ins recorded for this plan"}
			}
			return fmt.Errorf("load latest snapshot: %w", err)
		}

		profile := t.buildProfile(tx, p, snap.WeightKg)
		if deltaKcal != nil {
			adj, clamped = UserRequested(&snap, p.DailyCalories, *deltaKcal, profile, t.Cfg.Tracking)
		} else {
			adj, clamped = Decide(&snap, p.DailyCalories, profile, t.Cfg.Tracking)
		}
		if adj == nil {
			return nil
		}
		if err := record(tx, adj); err != nil {
			return err
		}
		return plan.UpdateCalories(tx, planID, adj.NewCalories)
	})
	if err != nil {
		return nil, false, err
	}
	return adj, clamped, nil
}

// buildProfile assembles the analyzer/engine inputs from the plan and
// its owner. A missing or incomplete owner profile just disables the
// senior BMR floor; it never fails the pipeline.
func (t *Tracker) buildProfile(tx *gorm.DB, p *plan.Plan, currentWeightKg float64) Profile {
	prof := Profile{
		StartingWeightKg:       p.StartingWeightKg,
		Goal:                   p.Goal,
		ExpectedWeeklyChangeKg: p.ExpectedWeeklyChangeKg(),
	}
	var u user.User
	if err := tx.First(&u, p.UserID).Error; err == nil {
		prof.Age = u.Age
		prof.BMRKcal = u.BMR(currentWeightKg)
	}
	return prof
}

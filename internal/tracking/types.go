package tracking

import (
	"time"

	"dietflow/internal/plan"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

func ValidLevel(l Level) bool {
	return l == LevelLow || l == LevelModerate || l == LevelHigh
}

// CheckIn is one weekly submission for a plan. Immutable once created;
// corrections are new rows, never edits.
type CheckIn struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	PlanID               uint      `gorm:"not null;uniqueIndex:idx_plan_week,priority:1" json:"plan_id"`
	WeekNumber           int       `gorm:"not null;uniqueIndex:idx_plan_week,priority:2" json:"week_number"`
	Date                 time.Time `json:"date"`
	WeightKg             float64   `json:"weight_kg"`
	DietAdherencePct     int       `json:"diet_adherence_pct"`
	ExerciseAdherencePct int       `json:"exercise_adherence_pct"`
	EnergyLevel          Level     `gorm:"type:varchar(10)" json:"energy_level"`
	HungerLevel          Level     `gorm:"type:varchar(10)" json:"hunger_level"`
	Challenges           string    `json:"challenges,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// ProgressSnapshot is the derived record for one check-in, computed from
// that check-in and all prior snapshots for the plan. Exactly one per
// check-in; never recomputed when later check-ins arrive.
type ProgressSnapshot struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CheckInID         uint      `gorm:"uniqueIndex;not null" json:"check_in_id"`
	PlanID            uint      `gorm:"index;not null" json:"plan_id"`
	WeekNumber        int       `json:"week_number"`
	WeightKg          float64   `json:"weight_kg"`
	WeightChangeKg    float64   `json:"weight_change_kg"`
	TotalChangeKg     float64   `json:"total_change_kg"`
	AvgWeeklyChangeKg float64   `json:"avg_weekly_change_kg"`
	WeeksOnPlan       int       `json:"weeks_on_plan"`
	ExpectedWeightKg  float64   `json:"expected_weight_kg"`
	VarianceKg        float64   `json:"variance_kg"`
	IsPlateau         bool      `json:"is_plateau"`
	IsOffTrack        bool      `json:"is_off_track"`
	NeedsAdjustment   bool      `json:"needs_adjustment"`
	CreatedAt         time.Time `json:"createdAt"`
}

type AdjustmentReason string

const (
	ReasonPlateau      AdjustmentReason = "plateau"
	ReasonSlowProgress AdjustmentReason = "slow_progress"
	ReasonTooFast      AdjustmentReason = "too_fast"
	ReasonUserRequest  AdjustmentReason = "user_request"
)

// CalorieAdjustment is an append-only ledger entry. The effectiveness
// fields are the only mutation ever allowed, written exactly once by a
// later evaluation pass.
type CalorieAdjustment struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	PlanID             uint             `gorm:"index;not null" json:"plan_id"`
	CheckInID          uint             `gorm:"uniqueIndex;not null" json:"check_in_id"`
	WeekNumber         int              `json:"week_number"`
	PreviousCalories   int              `json:"previous_calories"`
	NewCalories        int              `json:"new_calories"`
	DeltaKcal          int              `json:"delta_kcal"`
	Reason             AdjustmentReason `gorm:"type:varchar(16)" json:"reason"`
	TriggerMetric      string           `gorm:"size:32" json:"trigger_metric"`
	ClampApplied       bool             `json:"clamp_applied"`
	WasEffective       *bool            `json:"was_effective"`
	EffectivenessNotes string           `json:"effectiveness_notes,omitempty"`
	EvaluatedAt        *time.Time       `json:"evaluated_at,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// Profile carries the plan and user facts the analyzer and engine need.
// Built once per operation from the plan row and its owner.
type Profile struct {
	StartingWeightKg       float64
	Goal                   plan.Goal
	ExpectedWeeklyChangeKg float64
	Age                    int
	BMRKcal                float64
}

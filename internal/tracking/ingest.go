package tracking

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SubmitRequest is one weekly check-in submission. Date is optional and
// defaults to the submission time; it only feeds the duplicate-week
// check and the record itself, never the trend math.
type SubmitRequest struct {
	WeightKg             float64    `json:"weight_kg"`
	DietAdherencePct     int        `json:"diet_adherence_pct"`
	ExerciseAdherencePct int        `json:"exercise_adherence_pct"`
	EnergyLevel          Level      `json:"energy_level"`
	HungerLevel          Level      `json:"hunger_level"`
	Challenges           string     `json:"challenges,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	Date                 *time.Time `json:"date,omitempty"`
}

const (
	minPlausibleWeightKg = 20.0
	maxPlausibleWeightKg = 300.0
)

func validateSubmit(req *SubmitRequest) error {
	if req.WeightKg <= 0 {
		return &ValidationError{Field: "weight_kg", Reason: "must be a positive number"}
	}
	if req.WeightKg < minPlausibleWeightKg || req.WeightKg > maxPlausibleWeightKg {
		return &ValidationError{Field: "weight_kg", Reason: fmt.Sprintf(
			"outside plausible range %.0f-%.0f kg", minPlausibleWeightKg, maxPlausibleWeightKg)}
	}
	if req.DietAdherencePct < 0 || req.DietAdherencePct > 100 {
		return &ValidationError{Field: "diet_adherence_pct", Reason: "must be between 0 and 100"}
	}
	if req.ExerciseAdherencePct < 0 || req.ExerciseAdherencePct > 100 {
		return &ValidationError{Field: "exercise_adherence_pct", Reason: "must be between 0 and 100"}
	}
	if !ValidLevel(req.EnergyLevel) {
		return &ValidationError{Field: "energy_level", Reason: "must be low, moderate or high"}
	}
	if !ValidLevel(req.HungerLevel) {
		return &ValidationError{Field: "hunger_level", Reason: "must be low, moderate or high"}
	}
	return nil
}

// ingest validates the submission, assigns the next week number and
// persists the check-in. Assumes the caller holds the per-plan lock.
// Week numbers are exactly 1, 2, 3, ... with no gaps: a second
// submission in the same ISO calendar week is a conflict, never a
// silent overwrite.
func ingest(tx *gorm.DB, planID uint, req *SubmitRequest) (*CheckIn, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	var existing []CheckIn
	if err := tx.Where("plan_id = ?", planID).Order("week_number ASC").Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load check-in history: %w", err)
	}
	year, week := date.ISOWeek()
	for _, ci := range existing {
		y, w := ci.Date.ISOWeek()
		if y == year && w == week {
			return nil, &ConflictError{Reason: fmt.Sprintf(
				"a check-in for week %d already exists", ci.WeekNumber)}
		}
	}

	ci := &CheckIn{
		PlanID:               planID,
		WeekNumber:           len(existing) + 1,
		Date:                 date,
		WeightKg:             req.WeightKg,
		DietAdherencePct:     req.DietAdherencePct,
		ExerciseAdherencePct: req.ExerciseAdherencePct,
		EnergyLevel:          req.EnergyLevel,
		HungerLevel:          req.HungerLevel,
		Challenges:           req.Challenges,
		Notes:                req.Notes,
	}
	if err := tx.Create(ci).Error; err != nil {
		return nil, fmt.Errorf("persist check-in: %w", err)
	}
	return ci, nil
}

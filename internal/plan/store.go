package plan

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetActiveLocked fetches an active plan by id, taking a row-level lock so
// concurrent check-in submissions for the same plan are serialized. The
// lock clause is only emitted on postgres; sqlite (tests) is a single
// writer and rejects FOR UPDATE syntax.
func GetActiveLocked(tx *gorm.DB, planID uint) (*Plan, error) {
	q := tx.Where("active = ?", true)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p Plan
	if err := q.First(&p, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch plan %d: %w", planID, err)
	}
	return &p, nil
}

// Get fetches a plan by id without locking.
func Get(tx *gorm.DB, planID uint) (*Plan, error) {
	var p Plan
	if err := tx.First(&p, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch plan %d: %w", planID, err)
	}
	return &p, nil
}

// UpdateCalories writes a new daily calorie target back to the plan row.
// This is the only place the long-term target is persisted.
func UpdateCalories(tx *gorm.DB, planID uint, calories int) error {
	res := tx.Model(&Plan{}).Where("id = ?", planID).Update("daily_calories", calories)
	if res.Error != nil {
		return fmt.Errorf("update calories for plan %d: %w", planID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

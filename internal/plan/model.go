package plan

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Goal string

const (
	GoalLoss     Goal = "loss"
	GoalGain     Goal = "gain"
	GoalMaintain Goal = "maintain"
)

type Pace string

const (
	PaceSlow       Pace = "slow"
	PaceModerate   Pace = "moderate"
	PaceAggressive Pace = "aggressive"
)

var ErrNotFound = errors.New("plan not found")

type Plan struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	Title            string         `gorm:"size:128" json:"title"`
	Goal             Goal           `gorm:"type:varchar(12);not null" json:"goal"`
	Pace             Pace           `gorm:"type:varchar(12);not null;default:'moderate'" json:"pace"`
	StartingWeightKg float64        `json:"starting_weight_kg"`
	DailyCalories    int            `json:"daily_calories"`
	Active           bool           `gorm:"default:true" json:"active"`
	StartDate        time.Time      `json:"start_date"`
	// NarrativeSessionID keys the plan's coaching conversation in redis.
	NarrativeSessionID string `gorm:"size:64" json:"narrative_session_id"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// paceKgPerWeek maps goal/pace to the expected weekly weight change in kg.
// Loss paces are negative, gain paces positive, maintain is always zero.
var paceKgPerWeek = map[Pace]float64{
	PaceSlow:       0.25,
	PaceModerate:   0.5,
	PaceAggressive: 0.75,
}

// ExpectedWeeklyChangeKg returns the signed weekly change the plan aims for.
func (p *Plan) ExpectedWeeklyChangeKg() float64 {
	if p.Goal == GoalMaintain {
		return 0
	}
	mag, ok := paceKgPerWeek[p.Pace]
	if !ok {
		mag = paceKgPerWeek[PaceModerate]
	}
	if p.Goal == GoalLoss {
		return -mag
	}
	return mag
}

func ValidGoal(g Goal) bool {
	return g == GoalLoss || g == GoalGain || g == GoalMaintain
}

func ValidPace(p Pace) bool {
	return p == PaceSlow || p == PaceModerate || p == PaceAggressive
}

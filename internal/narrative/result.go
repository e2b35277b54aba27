package narrative

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SchemaVersion tags every persisted narrative payload so future fields
// can be added without breaking historical records.
const SchemaVersion = 1

// Result is the structured narrative for one check-in. Fallback marks
// templated text used when the language model was unavailable.
type Result struct {
	SchemaVersion   int      `json:"schema_version"`
	Assessment      string   `json:"assessment_text"`
	Recommendations []string `json:"recommendations"`
	Motivation      string   `json:"motivation_text"`
	Fallback        bool     `json:"fallback"`
}

// Narrative is the persisted form, one row per check-in. Written
// best-effort after the core transaction commits; never part of it.
type Narrative struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PlanID        uint           `gorm:"index;not null" json:"plan_id"`
	CheckInID     uint           `gorm:"uniqueIndex;not null" json:"check_in_id"`
	SchemaVersion int            `json:"schema_version"`
	Payload       datatypes.JSON `json:"payload"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// ToRecord serializes a result for storage.
func (r *Result) ToRecord(planID, checkInID uint) (*Narrative, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode narrative payload: %w", err)
	}
	return &Narrative{
		PlanID:        planID,
		CheckInID:     checkInID,
		SchemaVersion: r.SchemaVersion,
		Payload:       datatypes.JSON(raw),
	}, nil
}

// Decode parses the stored payload back into a Result.
func (n *Narrative) Decode() (*Result, error) {
	var r Result
	if err := json.Unmarshal(n.Payload, &r); err != nil {
		return nil, fmt.Errorf("decode narrative payload: %w", err)
	}
	return &r, nil
}

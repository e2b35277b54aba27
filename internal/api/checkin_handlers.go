package api

import (
	"log"
	"net/http"

	"dietflow/internal/db"
	"dietflow/internal/narrative"
	"dietflow/internal/plan"
	"dietflow/internal/tracking"
	"dietflow/internal/user"

	"github.com/gin-gonic/gin"
)

type CheckInResponse struct {
	WeekNumber     int                         `json:"week_number"`
	WeightChangeKg float64                     `json:"weight_change_kg"`
	Snapshot       *tracking.ProgressSnapshot  `json:"snapshot"`
	Adjustment     *tracking.CalorieAdjustment `json:"adjustment,omitempty"`
	ClampApplied   bool                        `json:"clamp_applied"`
	Narrative      *narrative.Result           `json:"narrative"`
}

// POST /plans/:id/checkins
func SubmitCheckInHandler(tracker *tracking.Tracker, gen *narrative.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		planID, err := parsePlanID(c)
		if err != nil {
			return
		}
		if !ownsPlan(c, planID) {
			return
		}
		var req tracking.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		result, err := tracker.Submit(planID, &req)
		if err != nil {
			respondError(c, err)
			return
		}

		// The check-in is committed at this point. Narrative text is a
		// presentation concern and must not undo or delay it.
		facts := buildFacts(c, planID, result)
		story := gen.Generate(c.Request.Context(), facts)
		persistNarrative(planID, result.CheckIn.ID, story)

		c.JSON(http.StatusCreated, CheckInResponse{
			WeekNumber:     result.CheckIn.WeekNumber,
			WeightChangeKg: result.Snapshot.WeightChangeKg,
			Snapshot:       result.Snapshot,
			Adjustment:     result.Adjustment,
			ClampApplied:   result.ClampApplied,
			Narrative:      story,
		})
	}
}

// GET /plans/:id/progress
func ProgressHistoryHandler(tracker *tracking.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		planID, err := parsePlanID(c)
		if err != nil {
			return
		}
		if !ownsPlan(c, planID) {
			return
		}
		history, err := tracker.History(planID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

type AdjustRequest struct {
	DeltaKcal *int `json:"delta_kcal"`
}

// POST /plans/:id/adjust
func AdjustCaloriesHandler(tracker *tracking.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		planID, err := parsePlanID(c)
		if err != nil {
			return
		}
		if !ownsPlan(c, planID) {
			return
		}
		var req AdjustRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
				return
			}
		}
		adj, clamped, err := tracker.Readjust(planID, req.DeltaKcal)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"adjustment":    adj,
			"clamp_applied": clamped,
		})
	}
}

func buildFacts(c *gin.Context, planID uint, result *tracking.SubmitResult) *narrative.Facts {
	facts := &narrative.Facts{
		Snapshot:   result.Snapshot,
		Adjustment: result.Adjustment,
	}
	if p, err := plan.Get(db.DB, planID); err == nil {
		facts.Goal = p.Goal
		facts.SessionID = p.NarrativeSessionID
	}
	if userId, ok := c.Get("userId"); ok {
		var u user.User
		if err := db.DB.First(&u, userId.(uint)).Error; err == nil {
			facts.UserName = u.Name
		}
	}
	return facts
}

func persistNarrative(planID, checkInID uint, story *narrative.Result) {
	record, err := story.ToRecord(planID, checkInID)
	if err != nil {
		log.Printf("[Narrative] skipping persistence for check-in %d: %v", checkInID, err)
		return
	}
	if err := db.DB.Create(record).Error; err != nil {
		log.Printf("[Narrative] failed to store narrative for check-in %d: %v", checkInID, err)
	}
}

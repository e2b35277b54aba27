package api

import (
	"net/http"
	"strconv"
	"time"

	"dietflow/internal/db"
	"dietflow/internal/narrative"
	"dietflow/internal/plan"

	"github.com/gin-gonic/gin"
)

type CreatePlanRequest struct {
	Title            string    `json:"title"`
	Goal             plan.Goal `json:"goal"`
	Pace             plan.Pace `json:"pace"`
	StartingWeightKg float64   `json:"starting_weight_kg"`
	DailyCalories    int       `json:"daily_calories"`
}

// POST /plans
func CreatePlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := c.Get("userId")
		var req CreatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if !plan.ValidGoal(req.Goal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Goal must be loss, gain or maintain", "field": "goal"}})
			return
		}
		if req.Pace == "" {
			req.Pace = plan.PaceModerate
		}
		if !plan.ValidPace(req.Pace) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Pace must be slow, moderate or aggressive", "field": "pace"}})
			return
		}
		if req.StartingWeightKg <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Starting weight must be positive", "field": "starting_weight_kg"}})
			return
		}
		if req.DailyCalories <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Daily calories must be positive", "field": "daily_calories"}})
			return
		}
		p := plan.Plan{
			UserID:             userId.(uint),
			Title:              req.Title,
			Goal:               req.Goal,
			Pace:               req.Pace,
			StartingWeightKg:   req.StartingWeightKg,
			DailyCalories:      req.DailyCalories,
			Active:             true,
			StartDate:          time.Now(),
			NarrativeSessionID: narrative.NewSessionID(),
		}
		if err := db.DB.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Create error"}})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// GET /plans
func ListPlansHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := c.Get("userId")
		var plans []plan.Plan
		if err := db.DB.Where("user_id = ?", userId.(uint)).Order("created_at DESC").Find(&plans).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "List error"}})
			return
		}
		c.JSON(http.StatusOK, plans)
	}
}

// GET /plans/:id
func GetPlanHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := c.Get("userId")
		planID, err := parsePlanID(c)
		if err != nil {
			return
		}
		p, err := plan.Get(db.DB, planID)
		if err != nil {
			respondError(c, err)
			return
		}
		if p.UserID != userId.(uint) {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Forbidden"}})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// parsePlanID reads the :id path param; writes the 400 itself so
// callers can just bail on error.
func parsePlanID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid plan id"}})
		return 0, err
	}
	return uint(id), nil
}

// ownsPlan verifies the authenticated user owns the plan; writes the
// response on failure.
func ownsPlan(c *gin.Context, planID uint) bool {
	userId, _ := c.Get("userId")
	p, err := plan.Get(db.DB, planID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if p.UserID != userId.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Forbidden"}})
		return false
	}
	return true
}

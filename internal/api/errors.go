package api

import (
	"errors"
	"log"
	"net/http"

	"dietflow/internal/plan"
	"dietflow/internal/tracking"

	"github.com/gin-gonic/gin"
)

// respondError maps the tracking error taxonomy onto HTTP statuses.
// Validation and conflict errors carry enough detail to correct the
// input; consistency errors are logged and hidden behind a generic
// message because they signal a bug, not a bad request.
func respondError(c *gin.Context, err error) {
	var verr *tracking.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "validation",
			"field":   verr.Field,
			"message": verr.Error(),
		}})
		return
	}
	var conflict *tracking.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"kind":    "conflict",
			"message": conflict.Reason,
		}})
		return
	}
	if errors.Is(err, plan.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"kind":    "not_found",
			"message": "Plan not found",
		}})
		return
	}
	var cons *tracking.ConsistencyError
	if errors.As(err, &cons) {
		log.Printf("[API] consistency violation: %v", cons)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal error"}})
		return
	}
	log.Printf("[API] unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal error"}})
}

package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cogniverse/internal/attempt"
	"cogniverse/internal/auth"
	"cogniverse/internal/db"
	"cogniverse/internal/engine"
	"cogniverse/internal/state"
)

var validTaskStatuses = map[string]bool{
	"todo":      true,
	"done":      true,
	"skipped":   true,
	"difficult": true,
}

type MarkActionRequest struct {
	RecommendationID uint   `json:"recommendationId"`
	TaskID           string `json:"taskId"`
	Status           string `json:"status"`
	Note             string `json:"note"`
}

// MarkActionHandler updates a plan task inside a stored recommendation and
// logs the matching action event. There is no idempotency key: submitting the
// same mark twice applies twice (and bumps the state version twice).
func MarkActionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}
		if ident.Ephemeral {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to track actions")
			return
		}

		var req MarkActionRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.TaskID == "" || !validTaskStatuses[req.Status] {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid mark payload")
			return
		}

		a, err := attempt.GetAttemptForUser(db.DB, ident.ID, req.RecommendationID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Recommendation not found")
			return
		}
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to load recommendation")
			return
		}

		alreadyFinished := false
		if prior, derr := a.DecodeRecommendation(); derr == nil {
			_, alreadyFinished = engine.PlanCompletion(prior.Plan)
		}

		bundle, err := attempt.MarkTask(db.DB, a, req.TaskID, req.Status, req.Note)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Task not found in plan")
				return
			}
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to update task")
			return
		}

		// First time the plan reaches a terminal state, fold its completion
		// rate into the strategy memory so bad strategies get avoided.
		if rate, finished := engine.PlanCompletion(bundle.Plan); finished && !alreadyFinished {
			if err := engine.RecordStrategyOutcome(db.DB, ident.ID, bundle.Strategy, rate); err != nil {
				log.Printf("[API] strategy outcome failed: %v", err)
			}
		}

		eventType := state.EventActionStarted
		switch req.Status {
		case "done":
			eventType = state.EventActionCompleted
		case "skipped", "difficult":
			eventType = state.EventActionSkipped
		}
		if _, _, err := state.RecordEvent(db.DB, ident.ID, state.EventInput{
			Type: string(eventType),
			Payload: map[string]interface{}{
				"actionId": req.TaskID,
				"status":   req.Status,
				"note":     req.Note,
			},
		}); err != nil {
			log.Printf("[API] action event failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

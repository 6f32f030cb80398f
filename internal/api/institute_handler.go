package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cogniverse/internal/attempt"
	"cogniverse/internal/db"
)

// InstituteHandler returns the cohort dashboard: one row per student built
// from their latest attempt. Admin only (enforced by the router middleware).
func InstituteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := attempt.CohortRows(db.DB)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to build cohort view")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"students": rows,
			"count":    len(rows),
		})
	}
}

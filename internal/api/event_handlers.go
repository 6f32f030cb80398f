package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cogniverse/internal/auth"
	"cogniverse/internal/db"
	"cogniverse/internal/engine"
	"cogniverse/internal/state"
)

// stateSnapshot is the wire form of an envelope handed back to clients.
func stateSnapshot(s state.UserState) gin.H {
	return gin.H{
		"userId":      s.UserID,
		"version":     s.Version,
		"signals":     s.Signals,
		"facts":       s.Facts,
		"lastUpdated": s.UpdatedAt,
	}
}

// applyEvent runs one event through the envelope for the given identity.
// Durable identities load, persist, and log; ephemeral identities get a
// request-scoped application on the default state and nothing is written.
func applyEvent(ident auth.Identity, input state.EventInput) (state.UserState, error) {
	if ident.Ephemeral {
		event := state.NormalizeEvent(ident.ID, input)
		return state.ApplyEventToState(state.CreateDefaultState(ident.ID), event), nil
	}
	next, _, err := state.RecordEvent(db.DB, ident.ID, input)
	return next, err
}

// PostEventHandler ingests one client event and returns the updated snapshot.
func PostEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var input state.EventInput
		if err := c.ShouldBindJSON(&input); err != nil || input.Type == "" {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid event body")
			return
		}

		next, err := applyEvent(ident, input)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to apply event")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":            true,
			"stateSnapshot": stateSnapshot(next),
		})
	}
}

// StateHandler returns the identity's current snapshot.
func StateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		if ident.Ephemeral {
			c.JSON(http.StatusOK, gin.H{"stateSnapshot": stateSnapshot(state.CreateDefaultState(ident.ID))})
			return
		}

		s, err := state.LoadState(db.DB, ident.ID)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to load state")
			return
		}
		c.JSON(http.StatusOK, gin.H{"stateSnapshot": stateSnapshot(s)})
	}
}

// NudgesHandler derives reminder nudges from the recent event window.
func NudgesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var events []engine.NudgeEvent
		var lastDone *time.Time

		if !ident.Ephemeral {
			rows, err := state.RecentEvents(db.DB, ident.ID, 50)
			if err != nil {
				errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to load events")
				return
			}
			for _, row := range rows {
				events = append(events, engine.NudgeEvent{Type: row.Type, TS: row.TS})
				if row.Type == string(state.EventActionCompleted) && (lastDone == nil || row.TS.After(*lastDone)) {
					ts := row.TS
					lastDone = &ts
				}
			}
		}

		nudges := engine.BuildNudges(events, lastDone)
		if nudges == nil {
			nudges = []engine.Nudge{}
		}
		c.JSON(http.StatusOK, gin.H{"nudges": nudges})
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cogniverse/internal/attempt"
	"cogniverse/internal/auth"
	"cogniverse/internal/config"
	"cogniverse/internal/db"
	"cogniverse/internal/llm"
	"cogniverse/internal/state"
)

type CoachRequest struct {
	Message   string `json:"message"`
	AttemptID uint   `json:"attemptId"`
}

type CoachReply struct {
	Reply          string   `json:"reply"`
	SuggestedChips []string `json:"suggestedChips"`
	Fallback       bool     `json:"fallback,omitempty"`
}

const coachSystemPrompt = `You are a supportive exam-prep coach. Ground your answer in the provided attempt context when present.
Return ONLY valid JSON: {"reply": "string", "suggestedChips": ["string", ...]}
Keep the reply under 120 words. 2-4 chips. No markdown, JSON only.`

func fallbackCoachReply() CoachReply {
	return CoachReply{
		Reply:          "I'm here with you. Let's focus on one improvement for the next 48 hours, then stack consistency.",
		SuggestedChips: []string{"Summarize my top errors", "Give me a 2-day plan", "Reset my routine"},
		Fallback:       true,
	}
}

// generateCoachReply asks the LLM for a strict-JSON coaching answer and
// degrades to the fixed fallback on any failure.
func generateCoachReply(ctx context.Context, client *llm.Client, ident auth.Identity, req CoachRequest) CoachReply {
	contextText := ""
	if !ident.Ephemeral && req.AttemptID != 0 {
		if a, err := attempt.GetAttemptForUser(db.DB, ident.ID, req.AttemptID); err == nil {
			if bundle, err := a.DecodeRecommendation(); err == nil {
				contextText = "Exam: " + a.Exam + ". Analysis summary: " + bundle.Analysis.Summary
			}
		}
	}

	messages := []llm.Message{
		{Role: "system", Content: coachSystemPrompt},
	}
	if contextText != "" {
		messages = append(messages, llm.Message{Role: "system", Content: "Attempt context: " + contextText})
	}
	messages = append(messages, llm.Message{Role: "user", Content: req.Message})

	raw, err := client.Chat(ctx, messages, llm.Options{Temperature: 0.4, MaxTokens: 500})
	if err != nil {
		if !errors.Is(err, llm.ErrNoCredentials) {
			log.Printf("[Coach] LLM unavailable, using fallback: %v", err)
		}
		return fallbackCoachReply()
	}

	payload := llm.ExtractJSONBlock(raw)
	if payload == "" {
		return fallbackCoachReply()
	}
	var reply CoachReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil || strings.TrimSpace(reply.Reply) == "" {
		return fallbackCoachReply()
	}
	if len(reply.SuggestedChips) == 0 {
		reply.SuggestedChips = fallbackCoachReply().SuggestedChips
	}
	return reply
}

// CoachHandler is the one-shot coach chat endpoint.
func CoachHandler(cfg *config.Config) gin.HandlerFunc {
	client := llm.NewClient(cfg)

	return func(c *gin.Context) {
		ident, ok := auth.IdentityFromContext(c)
		if !ok {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "No identity")
			return
		}

		var req CoachRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid coach payload")
			return
		}

		reply := generateCoachReply(c.Request.Context(), client, ident, req)

		if !ident.Ephemeral {
			if _, _, err := state.RecordEvent(db.DB, ident.ID, state.EventInput{
				Type: string(state.EventChatMessage),
				Payload: map[string]interface{}{
					"role":    "user",
					"content": req.Message,
				},
			}); err != nil {
				log.Printf("[Coach] chat event failed: %v", err)
			}
		}

		c.JSON(http.StatusOK, reply)
	}
}


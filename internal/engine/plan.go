// internal/engine/plan.go
package engine

import (
	"fmt"

	"github.com/google/uuid"
)

type PlanTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	LinkedNbaID string `json:"linkedNbaId,omitempty"`
	EstMinutes  int    `json:"estMinutes,omitempty"`
	Status      string `json:"status"` // todo | done | skipped | difficult
	Note        string `json:"note,omitempty"`
}

type PlanDay struct {
	DayIndex int        `json:"dayIndex"`
	Title    string     `json:"title"`
	Tasks    []PlanTask `json:"tasks"`
}

type Plan struct {
	HorizonDays int       `json:"horizonDays"`
	Days        []PlanDay `json:"days"`
}

const fillerTaskTitle = "Light review + error log refresh"

func estMinutesForEffort(effortLevel string) int {
	switch effortLevel {
	case "S":
		return 30
	case "M":
		return 60
	default:
		return 90
	}
}

// BuildPlan distributes actions round-robin across horizonDays day buckets.
// Every day ends up with at least one task: days left empty by the assignment
// pass receive a filler task.
func BuildPlan(actions []NBAAction, horizonDays int) Plan {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	days := make([]PlanDay, horizonDays)
	for i := range days {
		days[i] = PlanDay{
			DayIndex: i + 1,
			Title:    fmt.Sprintf("Day %d", i+1),
			Tasks:    []PlanTask{},
		}
	}

	for i, action := range actions {
		task := PlanTask{
			ID:          uuid.NewString(),
			Title:       action.Title,
			LinkedNbaID: action.ID,
			EstMinutes:  estMinutesForEffort(action.EffortLevel),
			Status:      "todo",
		}
		dayIndex := i % len(days)
		days[dayIndex].Tasks = append(days[dayIndex].Tasks, task)
		if len(days[dayIndex].Tasks) == 1 {
			days[dayIndex].Title = fmt.Sprintf("Day %d: %s", dayIndex+1, task.Title)
		}
	}

	for i := range days {
		if len(days[i].Tasks) == 0 {
			filler := PlanTask{
				ID:         uuid.NewString(),
				Title:      fillerTaskTitle,
				EstMinutes: 30,
				Status:     "todo",
			}
			days[i].Tasks = append(days[i].Tasks, filler)
			days[i].Title = fmt.Sprintf("Day %d: %s", i+1, filler.Title)
		}
	}

	return Plan{
		HorizonDays: horizonDays,
		Days:        days,
	}
}

// PlanCompletion reports the percent of tasks marked done and whether every
// task has reached a terminal status (done, skipped or difficult).
func PlanCompletion(p Plan) (float64, bool) {
	total, done, terminal := 0, 0, 0
	for _, day := range p.Days {
		for _, task := range day.Tasks {
			total++
			switch task.Status {
			case "done":
				done++
				terminal++
			case "skipped", "difficult":
				terminal++
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(done) * 100 / float64(total), terminal == total
}

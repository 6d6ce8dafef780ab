// Package goals manages savings goals and their contribution history.
package goals

import "time"

// Goal is a savings target the user is working towards
type Goal struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Type          string    `json:"goal_type"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	TargetDate    string    `json:"target_date,omitempty"` // YYYY-MM-DD, empty when open-ended
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Contribution is a single payment recorded against a goal
type Contribution struct {
	ID            int64     `json:"id"`
	GoalID        int64     `json:"goal_id"`
	Amount        float64   `json:"amount"`
	Note          string    `json:"note,omitempty"`
	ContributedAt time.Time `json:"contributed_at"`
}

// Progress describes how far along a single goal is
type Progress struct {
	Goal      Goal    `json:"goal"`
	Percent   float64 `json:"percent"`
	Remaining float64 `json:"remaining"`
	// DaysLeft is negative when the target date has passed, zero when
	// the goal has no target date.
	DaysLeft int `json:"days_left"`
}

// Stats aggregates all goals of one user
type Stats struct {
	TotalGoals      int     `json:"total_goals"`
	CompletedGoals  int     `json:"completed_goals"`
	ActiveGoals     int     `json:"active_goals"`
	TotalTarget     float64 `json:"total_target"`
	TotalSaved      float64 `json:"total_saved"`
	OverallPercent  float64 `json:"overall_percent"`
	SavedLast30Days float64 `json:"saved_last_30_days"`
}

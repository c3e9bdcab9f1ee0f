package models

import "time"

type CreateHabitRequest struct {
	Title    string `json:"title" validate:"required,notblank"`
	WeekDays []int  `json:"weekDays" validate:"required,dive,min=0,max=6"`
}

type DayQuery struct {
	Date string `form:"date" validate:"required"`
}

type ToggleHabitParams struct {
	ID string `uri:"id" validate:"required,uuid"`
}

// DayView is the GET /day payload. CompletedHabits stays nil (and is
// omitted) when no Day row exists for the date.
type DayView struct {
	PossibleHabits  []Habit   `json:"possibleHabits"`
	CompletedHabits *[]string `json:"completedHabits,omitempty"`
}

type ToggleResult struct {
	HabitID   string    `json:"habit_id"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

type SummaryDay struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Completed int       `json:"completed"`
	Amount    int       `json:"amount"`
}

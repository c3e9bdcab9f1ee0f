package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Habit struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"not null" json:"title"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	WeekDays  []HabitWeekDay `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE" json:"week_days,omitempty"`
	DayHabits []DayHabit     `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Habit) TableName() string { return "habits" }

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// HabitWeekDay stores one weekday (0 = Sunday) a habit recurs on.
type HabitWeekDay struct {
	ID      string `gorm:"primaryKey" json:"id"`
	HabitID string `gorm:"not null;uniqueIndex:idx_habit_week_day,priority:1" json:"habit_id"`
	WeekDay int    `gorm:"not null;uniqueIndex:idx_habit_week_day,priority:2" json:"week_day"`
}

func (HabitWeekDay) TableName() string { return "habit_week_days" }

func (w *HabitWeekDay) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Day exists only once some habit was toggled on that date.
type Day struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	Date      time.Time  `gorm:"not null;uniqueIndex" json:"date"`
	DayHabits []DayHabit `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Day) TableName() string { return "days" }

func (d *Day) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DayHabit marks a habit as completed on a day.
type DayHabit struct {
	ID      string `gorm:"primaryKey" json:"id"`
	DayID   string `gorm:"not null;uniqueIndex:idx_day_habit,priority:1" json:"day_id"`
	HabitID string `gorm:"not null;uniqueIndex:idx_day_habit,priority:2;index" json:"habit_id"`
}

func (DayHabit) TableName() string { return "day_habits" }

func (dh *DayHabit) BeforeCreate(tx *gorm.DB) error {
	if dh.ID == "" {
		dh.ID = uuid.NewString()
	}
	return nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Habit{},
		&HabitWeekDay{},
		&Day{},
		&DayHabit{},
	}
}

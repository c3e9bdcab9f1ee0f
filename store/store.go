package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrHabitNotFound = errors.New("habit not found")

// Store is every query the HTTP layer needs. Dates passed in must already
// be normalized with utils.StartOfDay.
type Store interface {
	CreateHabit(ctx context.Context, title string, weekDays []int, createdAt time.Time) (*models.Habit, error)
	PossibleHabits(ctx context.Context, date time.Time) ([]models.Habit, error)
	// CompletedHabitIDs returns nil when no Day row exists for date.
	CompletedHabitIDs(ctx context.Context, date time.Time) ([]string, error)
	// ToggleHabit flips completion of habitID on date and reports the new state.
	ToggleHabit(ctx context.Context, habitID string, date time.Time) (bool, error)
	Summary(ctx context.Context) ([]models.SummaryDay, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateHabit(ctx context.Context, title string, weekDays []int, createdAt time.Time) (*models.Habit, error) {
	habit := models.Habit{
		Title:     title,
		CreatedAt: createdAt,
		WeekDays:  make([]models.HabitWeekDay, 0, len(weekDays)),
	}
	for _, wd := range uniqueWeekDays(weekDays) {
		habit.WeekDays = append(habit.WeekDays, models.HabitWeekDay{WeekDay: wd})
	}

	// Create saves the weekday associations in the same transaction.
	if err := s.db.WithContext(ctx).Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

func (s *GormStore) PossibleHabits(ctx context.Context, date time.Time) ([]models.Habit, error) {
	habits := []models.Habit{}
	err := s.db.WithContext(ctx).
		Where("created_at <= ?", date).
		Where("EXISTS (SELECT 1 FROM habit_week_days hwd WHERE hwd.habit_id = habits.id AND hwd.week_day = ?)", utils.WeekDay(date)).
		Order("created_at, title").
		Find(&habits).Error
	if err != nil {
		return nil, fmt.Errorf("find possible habits: %w", err)
	}
	return habits, nil
}

func (s *GormStore) CompletedHabitIDs(ctx context.Context, date time.Time) ([]string, error) {
	var day models.Day
	err := s.db.WithContext(ctx).
		Preload("DayHabits").
		Where("date = ?", date).
		Take(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find day: %w", err)
	}

	ids := make([]string, 0, len(day.DayHabits))
	for _, dh := range day.DayHabits {
		ids = append(ids, dh.HabitID)
	}
	return ids, nil
}

func (s *GormStore) ToggleHabit(ctx context.Context, habitID string, date time.Time) (bool, error) {
	var completed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var habit models.Habit
		if err := tx.Select("id").Where("id = ?", habitID).Take(&habit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return fmt.Errorf("find habit: %w", err)
		}

		newDay := models.Day{Date: date}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).Create(&newDay).Error; err != nil {
			return fmt.Errorf("create day: %w", err)
		}

		// Locking the day row serializes toggles for the same date on
		// PostgreSQL. The SQLite driver drops the clause.
		var day models.Day
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("date = ?", date).
			Take(&day).Error; err != nil {
			return fmt.Errorf("lock day: %w", err)
		}

		res := tx.Where("day_id = ? AND habit_id = ?", day.ID, habitID).Delete(&models.DayHabit{})
		if res.Error != nil {
			return fmt.Errorf("delete completion: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			completed = false
			return nil
		}

		if err := tx.Create(&models.DayHabit{DayID: day.ID, HabitID: habitID}).Error; err != nil {
			return fmt.Errorf("create completion: %w", err)
		}
		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

// Summary computes, per day, the number of completions and the number of
// habits applicable that day. completed is not filtered by applicability.
func (s *GormStore) Summary(ctx context.Context) ([]models.SummaryDay, error) {
	query := fmt.Sprintf(`
		SELECT d.id, d.date,
			(SELECT COUNT(*) FROM day_habits dh WHERE dh.day_id = d.id) AS completed,
			(SELECT COUNT(*) FROM habit_week_days hwd
				JOIN habits h ON h.id = hwd.habit_id
				WHERE hwd.week_day = %s
				AND h.created_at <= d.date
			) AS amount
		FROM days d
		ORDER BY d.date
	`, weekDayExpr(s.db.Dialector.Name(), "d.date"))

	summary := []models.SummaryDay{}
	if err := s.db.WithContext(ctx).Raw(query).Scan(&summary).Error; err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}
	return summary, nil
}

// weekDayExpr derives the Sunday-first weekday of a stored UTC-midnight date.
func weekDayExpr(dialect, column string) string {
	switch dialect {
	case "postgres":
		return fmt.Sprintf("CAST(EXTRACT(DOW FROM %s AT TIME ZONE 'UTC') AS INTEGER)", column)
	default:
		return fmt.Sprintf("CAST(strftime('%%w', %s) AS INTEGER)", column)
	}
}

func uniqueWeekDays(weekDays []int) []int {
	seen := make(map[int]struct{}, len(weekDays))
	out := make([]int, 0, len(weekDays))
	for _, wd := range weekDays {
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		out = append(out, wd)
	}
	sort.Ints(out)
	return out
}

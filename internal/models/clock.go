package models

import (
	"fmt"
	"strings"
	"time"
)

// Форматы хранения дат и времени
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
	PartitionLayout = "2006-01"
)

// Clock источник текущего времени
type Clock func() time.Time

// FormatDate форматирует дату в YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatClock форматирует время дня в HH:MM:SS
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// PartitionOf возвращает идентификатор месячной партиции (YYYY-MM)
func PartitionOf(t time.Time) string {
	return t.Format(PartitionLayout)
}

// ParseDate разбирает дату в формате YYYY-MM-DD в указанной зоне
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// ParsePartition разбирает месяц YYYY-MM
func ParsePartition(s string) (time.Time, error) {
	return time.Parse(PartitionLayout, strings.TrimSpace(s))
}

// ParseClock разбирает HH:MM:SS (или HH:MM) в смещение от полуночи
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	layout := ClockLayout
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// MustClock как ParseClock, но паникует. Для констант.
func MustClock(s string) time.Duration {
	d, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return d
}

// StartOfDay отбрасывает время
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// At собирает момент времени из даты и смещения от полуночи
func At(day time.Time, offset time.Duration) time.Time {
	return StartOfDay(day).Add(offset)
}

// FormatWorked форматирует длительность как 9h08min
func FormatWorked(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dmin", hours, minutes)
}

// DateIn переносит календарную дату t (без времени) в зону loc
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

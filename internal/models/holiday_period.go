package models

import (
	"time"
)

// HolidayPeriod праздничный период, общий для всех сотрудников. Границы включительно.
type HolidayPeriod struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"not null;uniqueIndex:idx_holiday_span,priority:1" json:"description"`
	DateDebut   string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_holiday_span,priority:2" json:"date_debut"`
	DateFin     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_holiday_span,priority:3" json:"date_fin"`
	Year        int       `gorm:"index" json:"year"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (HolidayPeriod) TableName() string {
	return "holiday_periods"
}

// Range разбирает границы периода
func (h *HolidayPeriod) Range(loc *time.Location) (DateRange, error) {
	return ParseRange(h.DateDebut, h.DateFin, loc)
}

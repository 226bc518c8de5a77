package models

import "time"

// Виды периодов отсутствия
const (
	PeriodKindLeave   = "leave"
	PeriodKindMission = "mission"
)

// AbsencePeriod отпуск или командировка сотрудника. Границы включительно.
type AbsencePeriod struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Kind       string    `gorm:"type:varchar(10);not null;index:idx_absence_kind_matricule,priority:1;uniqueIndex:idx_absence_span,priority:1" json:"kind"`
	Matricule  string    `gorm:"type:varchar(32);not null;index:idx_absence_kind_matricule,priority:2;uniqueIndex:idx_absence_span,priority:2" json:"matricule"`
	NomComplet string    `json:"nom_complet"`
	NomMission string    `json:"nom_mission,omitempty"`
	DateDebut  string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_absence_span,priority:3" json:"date_debut"`
	DateFin    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_absence_span,priority:4" json:"date_fin"`
	Year       int       `gorm:"index" json:"year"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (AbsencePeriod) TableName() string {
	return "absence_periods"
}

// Range разбирает границы периода
func (p *AbsencePeriod) Range(loc *time.Location) (DateRange, error) {
	return ParseRange(p.DateDebut, p.DateFin, loc)
}

// IsValidKind проверяет вид периода
func IsValidKind(kind string) bool {
	return kind == PeriodKindLeave || kind == PeriodKindMission
}

// DateRange включительный диапазон дат
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseRange разбирает пару дат YYYY-MM-DD
func ParseRange(start, end string, loc *time.Location) (DateRange, error) {
	s, err := ParseDate(start, loc)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end, loc)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains проверяет, попадает ли день в диапазон (границы включительно)
func (r DateRange) Contains(day time.Time) bool {
	d := FormatDate(day)
	return d >= FormatDate(r.Start) && d <= FormatDate(r.End)
}

// Overlaps пересекаются ли диапазоны; касание границ считается пересечением
func (r DateRange) Overlaps(other DateRange) bool {
	return !(other.End.Before(r.Start) || other.Start.After(r.End))
}

// String формат для сообщений
func (r DateRange) String() string {
	return FormatDate(r.Start) + " → " + FormatDate(r.End)
}

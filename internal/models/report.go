package models

import (
	"fmt"
	"time"
)

// Статусы классификации записи
const (
	StatusAbsent           = "absent"
	StatusMissingDeparture = "missing-departure"
	StatusOvertime         = "overtime"
	StatusIrregular        = "irregular"
	StatusLate             = "late"
	StatusEarly            = "early"
	StatusNormal           = "normal"
)

// Thresholds пороги классификации (смещения от полуночи)
type Thresholds struct {
	// EarlyArrival не участвует в классификации, хранится как настройка
	EarlyArrival  time.Duration
	MaxArrival    time.Duration
	MinDeparture  time.Duration
	LateThreshold time.Duration
}

// DefaultThresholds 07:15 / 08:15 / 16:45 / 17:45
func DefaultThresholds() Thresholds {
	return Thresholds{
		EarlyArrival:  MustClock("07:15:00"),
		MaxArrival:    MustClock("08:15:00"),
		MinDeparture:  MustClock("16:45:00"),
		LateThreshold: MustClock("17:45:00"),
	}
}

// Validate проверяет порядок порогов
func (t Thresholds) Validate() error {
	if t.MaxArrival >= t.MinDeparture {
		return &ValidationError{Field: "max_arrival", Message: "must be before min_departure"}
	}
	if t.MinDeparture > t.LateThreshold {
		return &ValidationError{Field: "late_threshold", Message: "must not be before min_departure"}
	}
	return nil
}

// Classification результат классификации
type Classification struct {
	Status   string `json:"status"`
	CSSClass string `json:"css_class"`
}

// TrackingEntry запись журнала с классификацией
type TrackingEntry struct {
	AttendanceRecord
	Worked         string `json:"temps"`
	Classification `json:"classification"`
}

// TrackingFilter фильтр отчета по месяцу
type TrackingFilter struct {
	Matricule  string
	Department string
	// Month YYYY-MM; пусто значит все партиции
	Month string
}

// AbsentEmployee отсутствующий сотрудник
type AbsentEmployee struct {
	Matricule   string `json:"matricule"`
	Nom         string `json:"nom"`
	Prenom      string `json:"prenom"`
	Telephone   string `json:"telephone"`
	Departement string `json:"departement"`
	Status      string `json:"status"`
	Duration    string `json:"duration"`
}

// AbsenceReport список отсутствующих за день
type AbsenceReport struct {
	Date      string           `json:"date"`
	Holiday   string           `json:"holiday,omitempty"`
	Employees []AbsentEmployee `json:"employees"`
}

// IsHoliday отчет заменен уведомлением о празднике
func (r AbsenceReport) IsHoliday() bool { return r.Holiday != "" }

// AdvancedReport дневная сводка по отделу
type AdvancedReport struct {
	Date              string `json:"date"`
	Department        string `json:"department,omitempty"`
	Holiday           string `json:"holiday,omitempty"`
	TotalEmployees    int    `json:"total_employees"`
	PresentToday      int    `json:"present_today"`
	AbsentToday       int    `json:"absent_today"`
	OnLeave           int    `json:"on_leave"`
	OnMission         int    `json:"on_mission"`
	LateArrivals      int    `json:"late_arrivals"`
	EarlyDepartures   int    `json:"early_departures"`
	MissingDepartures int    `json:"missing_departures"`
}

// IsHoliday отчет заменен уведомлением о празднике
func (r AdvancedReport) IsHoliday() bool { return r.Holiday != "" }

// PresentEmployee сотрудник на месте прямо сейчас
type PresentEmployee struct {
	Matricule    string `json:"matricule"`
	NomComplet   string `json:"nom_complet"`
	Nom          string `json:"nom,omitempty"`
	Prenom       string `json:"prenom,omitempty"`
	Departement  string `json:"departement"`
	HeureArrivee string `json:"heure_arrivee"`
	Date         string `json:"date"`
}

// EmployeeStats сводка присутствия сотрудника
type EmployeeStats struct {
	Matricule          string  `json:"matricule"`
	TotalDays          int     `json:"total_days"`
	TotalHours         float64 `json:"total_hours"`
	AverageHoursPerDay float64 `json:"average_hours_per_day"`
}

// String краткое описание для логов
func (s EmployeeStats) String() string {
	return fmt.Sprintf("%s: %d days, %.2fh", s.Matricule, s.TotalDays, s.TotalHours)
}

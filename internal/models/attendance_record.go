package models

import (
	"time"
)

// ReservedSlot интервал между приходом и зарезервированным слотом ухода
const ReservedSlot = time.Hour

// Состояния ухода
const (
	DepartureUnset     = "unset"     // прихода не было
	DepartureReserved  = "reserved"  // приход есть, уход зарезервирован (arrival + 1h)
	DepartureConfirmed = "confirmed" // реальный уход записан
)

// AttendanceRecord одна строка журнала на пару (matricule, date)
type AttendanceRecord struct {
	ID                uint      `gorm:"primarykey" json:"-"`
	Period            string    `gorm:"type:varchar(7);not null;index" json:"-"`
	Matricule         string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_attendance_matricule_date,priority:1" json:"matricule"`
	NomComplet        string    `gorm:"not null" json:"nom_complet"`
	Departement       string    `gorm:"index" json:"departement"`
	Date              string    `gorm:"type:varchar(10);not null;index;uniqueIndex:idx_attendance_matricule_date,priority:2" json:"date"`
	HeureArrivee      *string   `gorm:"type:varchar(8)" json:"heure_arrivee"`
	HeureDepartPrevue *string   `gorm:"type:varchar(8)" json:"heure_depart_prevue,omitempty"`
	HeureDepart       *string   `gorm:"type:varchar(8)" json:"heure_depart"`
	DepartureState    string    `gorm:"type:varchar(10);not null;default:'unset'" json:"departure_state"`
	Signature         string    `gorm:"type:varchar(16)" json:"signature"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// AttendancePartition месячная партиция журнала
type AttendancePartition struct {
	ID        uint      `gorm:"primarykey"`
	Period    string    `gorm:"type:varchar(7);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AttendancePartition) TableName() string {
	return "attendance_partitions"
}

// HasArrival есть ли отметка прихода
func (r *AttendanceRecord) HasArrival() bool {
	return r.HeureArrivee != nil && *r.HeureArrivee != ""
}

// IsDeparted записан ли реальный уход
func (r *AttendanceRecord) IsDeparted() bool {
	return r.DepartureState == DepartureConfirmed && r.HeureDepart != nil
}

// AwaitingDeparture приход есть, реального ухода нет
func (r *AttendanceRecord) AwaitingDeparture() bool {
	return r.HasArrival() && !r.IsDeparted()
}

// ArrivalAt возвращает момент прихода в зоне loc
func (r *AttendanceRecord) ArrivalAt(loc *time.Location) (time.Time, error) {
	return r.at(r.HeureArrivee, loc)
}

// DepartureAt возвращает момент реального ухода в зоне loc
func (r *AttendanceRecord) DepartureAt(loc *time.Location) (time.Time, error) {
	return r.at(r.HeureDepart, loc)
}

func (r *AttendanceRecord) at(clock *string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(r.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if clock == nil {
		return time.Time{}, &ValidationError{Field: "heure", Message: "not recorded"}
	}
	offset, err := ParseClock(*clock)
	if err != nil {
		return time.Time{}, err
	}
	return At(day, offset), nil
}

// ReservedUntil момент, до которого повторное сканирование считается дубликатом прихода
func (r *AttendanceRecord) ReservedUntil(loc *time.Location) (time.Time, error) {
	arrival, err := r.ArrivalAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return arrival.Add(ReservedSlot), nil
}

// MarkArrival заполняет приход и резервирует слот ухода
func (r *AttendanceRecord) MarkArrival(t time.Time) {
	arrival := FormatClock(t)
	reserved := FormatClock(t.Add(ReservedSlot))
	r.Date = FormatDate(t)
	r.Period = PartitionOf(t)
	r.HeureArrivee = &arrival
	r.HeureDepartPrevue = &reserved
	r.HeureDepart = nil
	r.DepartureState = DepartureReserved
}

// ConfirmDeparture записывает реальный уход
func (r *AttendanceRecord) ConfirmDeparture(t time.Time) {
	departure := FormatClock(t)
	r.HeureDepart = &departure
	r.DepartureState = DepartureConfirmed
}

// Worked отработанное время; 0 если ухода нет
func (r *AttendanceRecord) Worked(loc *time.Location) time.Duration {
	if !r.IsDeparted() {
		return 0
	}
	arrival, err := r.ArrivalAt(loc)
	if err != nil {
		return 0
	}
	departure, err := r.DepartureAt(loc)
	if err != nil {
		return 0
	}
	if departure.Before(arrival) {
		// уход после полуночи
		departure = departure.AddDate(0, 0, 1)
	}
	return departure.Sub(arrival)
}

// IsValid проверяет валидность данных
func (r *AttendanceRecord) IsValid() bool {
	if r.Matricule == "" || r.Date == "" || r.Period == "" {
		return false
	}
	switch r.DepartureState {
	case DepartureUnset:
		return r.HeureDepart == nil
	case DepartureReserved:
		return r.HasArrival() && r.HeureDepart == nil
	case DepartureConfirmed:
		return r.HasArrival() && r.HeureDepart != nil
	default:
		return false
	}
}

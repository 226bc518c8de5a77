package service

import (
	"presence-tracker/internal/models"
	"time"
)

var statusCSS = map[string]string{
	models.StatusAbsent:           "status-badge error",
	models.StatusMissingDeparture: "status-badge warning",
	models.StatusOvertime:         "status-badge success",
	models.StatusIrregular:        "status-badge error",
	models.StatusLate:             "status-badge warning",
	models.StatusEarly:            "status-badge warning",
	models.StatusNormal:           "status-badge normal",
}

// StatusClassifier классифицирует запись по фиксированным порогам. Без побочных эффектов.
type StatusClassifier struct {
	thresholds models.Thresholds
}

func NewStatusClassifier(thresholds models.Thresholds) *StatusClassifier {
	return &StatusClassifier{thresholds: thresholds}
}

// Thresholds текущие пороги
func (c *StatusClassifier) Thresholds() models.Thresholds {
	return c.thresholds
}

// Classify правила по порядку: absent, missing-departure, overtime, затем late/early/irregular/normal
func (c *StatusClassifier) Classify(record *models.AttendanceRecord) models.Classification {
	return classification(c.status(record))
}

func (c *StatusClassifier) status(record *models.AttendanceRecord) string {
	arrival, ok := arrivalOffset(record)
	if !ok {
		return models.StatusAbsent
	}

	departure, ok := departureOffset(record)
	if !ok {
		return models.StatusMissingDeparture
	}

	if arrival <= c.thresholds.MaxArrival && departure >= c.thresholds.LateThreshold {
		return models.StatusOvertime
	}

	late := arrival > c.thresholds.MaxArrival
	early := departure < c.thresholds.MinDeparture

	switch {
	case late && early:
		return models.StatusIrregular
	case late:
		return models.StatusLate
	case early:
		return models.StatusEarly
	default:
		return models.StatusNormal
	}
}

// IsLateArrival приход позже MaxArrival
func (c *StatusClassifier) IsLateArrival(record *models.AttendanceRecord) bool {
	arrival, ok := arrivalOffset(record)
	return ok && arrival > c.thresholds.MaxArrival
}

// IsEarlyDeparture подтвержденный уход раньше MinDeparture
func (c *StatusClassifier) IsEarlyDeparture(record *models.AttendanceRecord) bool {
	departure, ok := departureOffset(record)
	return ok && departure < c.thresholds.MinDeparture
}

func classification(status string) models.Classification {
	return models.Classification{Status: status, CSSClass: statusCSS[status]}
}

func arrivalOffset(record *models.AttendanceRecord) (time.Duration, bool) {
	if record == nil || !record.HasArrival() {
		return 0, false
	}
	offset, err := models.ParseClock(*record.HeureArrivee)
	return offset, err == nil
}

func departureOffset(record *models.AttendanceRecord) (time.Duration, bool) {
	if record == nil || !record.IsDeparted() {
		return 0, false
	}
	offset, err := models.ParseClock(*record.HeureDepart)
	return offset, err == nil
}

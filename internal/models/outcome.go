package models

// Статус результата сканирования
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Действия результата сканирования
const (
	ActionArrivee     = "arrivee"
	ActionDepart      = "depart"
	ActionHoliday     = "holiday"
	ActionOnLeave     = "on_leave"
	ActionOnMission   = "on_mission"
	ActionDejaPresent = "deja_present"
	ActionDejaSorti   = "deja_sorti"
	ActionErreur      = "erreur"
)

// ScanOutcome структурированный ответ на сканирование
type ScanOutcome struct {
	Status  string `json:"status"`
	Action  string `json:"action"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Succeeded сканирование изменило журнал
func (o ScanOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// Identity результат внешней биометрической идентификации
type Identity struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

// IdentityRejection отказ идентификации (лицо не найдено, не распознано, подозрение на подмену)
type IdentityRejection struct {
	Reason string
}

func (e *IdentityRejection) Error() string { return e.Reason }

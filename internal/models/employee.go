package models

import (
	"strings"
	"time"
)

// DepartmentAll значение фильтра "все отделы"
const DepartmentAll = "all"

// Employee запись кадрового реестра. Ядро читает только matricule, ФИО и отдел.
type Employee struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Matricule      string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"matricule"`
	Nom            string    `gorm:"not null" json:"nom"`
	Prenom         string    `gorm:"not null" json:"prenom"`
	Telephone      string    `json:"telephone"`
	Departement    string    `gorm:"not null;index" json:"departement"`
	LieuHabitation string    `json:"lieu_habitation,omitempty"`
	ImageRef       string    `json:"image_ref,omitempty"`
	ChatID         *int64    `gorm:"uniqueIndex" json:"chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName задает имя таблицы в БД
func (Employee) TableName() string {
	return "employees"
}

// FullName возвращает "Prenom Nom"
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.Prenom + " " + e.Nom)
}

// IsValid проверяет обязательные поля
func (e *Employee) IsValid() bool {
	return e.Matricule != "" && e.Nom != "" && e.Prenom != "" && e.Departement != ""
}

// MatchesDepartment сравнивает отдел без учета регистра.
// Пустой фильтр или DepartmentAll пропускают всех.
func MatchesDepartment(department, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, DepartmentAll) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(department), filter)
}

package calendarcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Holiday строка файла feriersYYYY.csv
type Holiday struct {
	Description string
	Start       string
	End         string
}

// Period строка файла отпусков или командировок
type Period struct {
	Matricule   string
	FullName    string
	MissionName string
	Start       string
	End         string
}

// Calendar содержимое каталога импорта
type Calendar struct {
	Holidays []Holiday
	Leaves   []Period
	Missions []Period
}

// Префиксы имен файлов
const (
	HolidayPrefix = "feriers"
	LeavePrefix   = "conges"
	MissionPrefix = "missions"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006"}

// ParseHolidays читает description,date_debut,date_fin
func ParseHolidays(r io.Reader) ([]Holiday, error) {
	rows, err := readRows(r, "description", "date_debut", "date_fin")
	if err != nil {
		return nil, err
	}

	holidays := []Holiday{}
	for _, row := range rows {
		start, end, err := row.dates()
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, Holiday{
			Description: row.get("description"),
			Start:       start,
			End:         end,
		})
	}
	return holidays, nil
}

// ParseLeaves читает matricule,nom complet,date debut,date fin
func ParseLeaves(r io.Reader) ([]Period, error) {
	return parsePeriods(r, false)
}

// ParseMissions читает matricule,nom complet,nom mission,date debut,date fin
func ParseMissions(r io.Reader) ([]Period, error) {
	return parsePeriods(r, true)
}

func parsePeriods(r io.Reader, mission bool) ([]Period, error) {
	required := []string{"matricule", "date_debut", "date_fin"}
	if mission {
		required = append(required, "nom_mission")
	}
	rows, err := readRows(r, required...)
	if err != nil {
		return nil, err
	}

	periods := []Period{}
	for _, row := range rows {
		start, end, err := row.dates()
		if err != nil {
			return nil, err
		}
		p := Period{
			Matricule: row.get("matricule"),
			FullName:  row.get("nom_complet"),
			Start:     start,
			End:       end,
		}
		if p.Matricule == "" {
			return nil, fmt.Errorf("line %d: empty matricule", row.line)
		}
		if mission {
			p.MissionName = row.get("nom_mission")
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// LoadDir рекурсивно читает все feriers*.csv, conges*.csv, missions*.csv
func LoadDir(dir string) (*Calendar, error) {
	cal := &Calendar{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := strings.ToLower(d.Name())
		if d.IsDir() || !strings.HasSuffix(name, ".csv") {
			return nil
		}

		switch {
		case strings.HasPrefix(name, HolidayPrefix):
			holidays, err := parseFile(path, ParseHolidays)
			if err != nil {
				return err
			}
			cal.Holidays = append(cal.Holidays, holidays...)
		case strings.HasPrefix(name, LeavePrefix):
			leaves, err := parseFile(path, ParseLeaves)
			if err != nil {
				return err
			}
			cal.Leaves = append(cal.Leaves, leaves...)
		case strings.HasPrefix(name, MissionPrefix):
			missions, err := parseFile(path, ParseMissions)
			if err != nil {
				return err
			}
			cal.Missions = append(cal.Missions, missions...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cal, nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	items, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return items, nil
}

// NormalizeHeader приводит "Date Debut", "date-debut", "date_début" к date_debut
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("é", "e", "è", "e", "ê", "e").Replace(h)
	h = strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")
	return h
}

// NormalizeDate приводит дату к YYYY-MM-DD
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

type row struct {
	line   int
	values map[string]string
}

func (r row) get(key string) string {
	return strings.TrimSpace(r.values[key])
}

func (r row) dates() (string, string, error) {
	start, err := NormalizeDate(r.get("date_debut"))
	if err != nil {
		return "", "", fmt.Errorf("line %d: date_debut: %w", r.line, err)
	}
	end, err := NormalizeDate(r.get("date_fin"))
	if err != nil {
		return "", "", fmt.Errorf("line %d: date_fin: %w", r.line, err)
	}
	if end < start {
		return "", "", fmt.Errorf("line %d: date_fin before date_debut", r.line)
	}
	return start, end, nil
}

func readRows(r io.Reader, required ...string) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = NormalizeHeader(h)
		present[columns[i]] = true
	}
	for _, name := range required {
		if !present[name] {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		values := make(map[string]string, len(columns))
		for i, v := range record {
			if i < len(columns) {
				values[columns[i]] = v
			}
		}
		rows = append(rows, row{line: line, values: values})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

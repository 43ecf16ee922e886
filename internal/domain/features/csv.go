package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ActivityHeader is the raw activity log column layout.
var ActivityHeader = []string{
	"employee_id", "role", "day", "is_weekend", "login_hour",
	"files_accessed", "failed_logins", "sensitive_files",
	"emails_sent", "usb_usage", "after_hours", "vpn_connections",
}

// LoadActivityCSV reads a raw activity log. Rows come back in file order.
func LoadActivityCSV(path string) ([]ActivityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]ActivityRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseActivityRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseActivityRow(rec []string) (ActivityRow, error) {
	if len(rec) != len(ActivityHeader) {
		return ActivityRow{}, fmt.Errorf("expected %d columns, got %d", len(ActivityHeader), len(rec))
	}
	ints := make([]int, 10)
	for i, idx := range []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11} {
		v, err := strconv.Atoi(rec[idx])
		if err != nil {
			return ActivityRow{}, fmt.Errorf("%s: %w", ActivityHeader[idx], err)
		}
		ints[i] = v
	}
	return ActivityRow{
		EmployeeID:     rec[0],
		Role:           rec[1],
		Day:            ints[0],
		IsWeekend:      ints[1] != 0,
		LoginHour:      ints[2],
		FilesAccessed:  ints[3],
		FailedLogins:   ints[4],
		SensitiveFiles: ints[5],
		EmailsSent:     ints[6],
		USBUsage:       ints[7],
		AfterHours:     ints[8],
		VPNConnections: ints[9],
	}, nil
}

// WriteActivityCSV writes rows with the standard header, creating parent
// directories as needed.
func WriteActivityCSV(path string, rows []ActivityRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ActivityHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.EmployeeID,
			r.Role,
			strconv.Itoa(r.Day),
			boolToInt(r.IsWeekend),
			strconv.Itoa(r.LoginHour),
			strconv.Itoa(r.FilesAccessed),
			strconv.Itoa(r.FailedLogins),
			strconv.Itoa(r.SensitiveFiles),
			strconv.Itoa(r.EmailsSent),
			strconv.Itoa(r.USBUsage),
			strconv.Itoa(r.AfterHours),
			strconv.Itoa(r.VPNConnections),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func boolToInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

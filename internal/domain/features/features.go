// Package features aggregates raw employee activity rows into the
// engineered feature vectors the fitted models expect. The column set and
// order must match what the models were trained on, so FeatureNames is the
// single source of truth for the vector layout.
package features

import (
	"math"
	"sort"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// ActivityRow is one employee-day of raw activity.
type ActivityRow struct {
	EmployeeID     string
	Role           string
	Day            int
	IsWeekend      bool
	LoginHour      int
	FilesAccessed  int
	FailedLogins   int
	SensitiveFiles int
	EmailsSent     int
	USBUsage       int
	AfterHours     int
	VPNConnections int
}

// FeatureNames is the fixed, ordered feature column layout.
var FeatureNames = []string{
	"login_mean",
	"login_std",
	"files_mean",
	"files_max",
	"files_std",
	"failed_total",
	"sensitive_total",
	"emails_mean",
	"emails_max",
	"usb_total",
	"after_hours_mean",
	"after_hours_max",
	"vpn_total",
	"sensitive_ratio",
	"failed_login_rate",
	"usb_rate",
	"vpn_rate",
	"weekend_activity_ratio",
}

// Aggregate builds one FeatureRecord per employee present in rows, tagged
// with the given batch number. Records come back ordered by employee ID so
// batch content is deterministic. Ratio features are computed against the
// number of distinct days observed across the whole row set, matching the
// training pipeline.
func Aggregate(rows []ActivityRow, batch int) []model.FeatureRecord {
	if len(rows) == 0 {
		return nil
	}

	days := make(map[int]struct{})
	byEmployee := make(map[string][]ActivityRow)
	for _, r := range rows {
		days[r.Day] = struct{}{}
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}
	totalDays := float64(len(days))

	ids := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.FeatureRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, buildRecord(id, byEmployee[id], totalDays, batch))
	}
	return out
}

func buildRecord(id string, rows []ActivityRow, totalDays float64, batch int) model.FeatureRecord {
	var logins, files, emails, afterHours series
	var weekendFiles, weekdayFiles series
	var failedTotal, sensitiveTotal float64
	var usbTotal, vpnTotal float64

	for _, r := range rows {
		logins.add(float64(r.LoginHour))
		files.add(float64(r.FilesAccessed))
		emails.add(float64(r.EmailsSent))
		afterHours.add(float64(r.AfterHours))
		failedTotal += float64(r.FailedLogins)
		sensitiveTotal += float64(r.SensitiveFiles)
		usbTotal += float64(r.USBUsage)
		vpnTotal += float64(r.VPNConnections)
		if r.IsWeekend {
			weekendFiles.add(float64(r.FilesAccessed))
		} else {
			weekdayFiles.add(float64(r.FilesAccessed))
		}
	}

	filesMean := files.mean()
	weekdayMean := 1.0 // no weekday activity observed
	if weekdayFiles.n > 0 {
		weekdayMean = weekdayFiles.mean()
	}

	values := []float64{
		logins.mean(),
		logins.std(),
		filesMean,
		files.max,
		files.std(),
		failedTotal,
		sensitiveTotal,
		emails.mean(),
		emails.max,
		usbTotal,
		afterHours.mean(),
		afterHours.max,
		vpnTotal,
		sensitiveTotal / (filesMean*totalDays + 1),
		failedTotal / totalDays,
		usbTotal / totalDays,
		vpnTotal / totalDays,
		weekendFiles.mean() / (weekdayMean + 1),
	}

	feats := make([]model.Feature, len(FeatureNames))
	for i, name := range FeatureNames {
		feats[i] = model.Feature{Name: name, Value: values[i]}
	}

	return model.FeatureRecord{
		EmployeeID:     id,
		Role:           rows[0].Role,
		Features:       feats,
		SensitiveTotal: sensitiveTotal,
		FailedTotal:    failedTotal,
		Batch:          batch,
	}
}

// series accumulates a running mean, max and variance over one column.
type series struct {
	n    int
	sum  float64
	sum2 float64
	max  float64
}

func (s *series) add(v float64) {
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
	s.sum += v
	s.sum2 += v * v
}

func (s *series) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// std is the population standard deviation; a single observation yields 0.
func (s *series) std() float64 {
	if s.n < 2 {
		return 0
	}
	m := s.mean()
	v := s.sum2/float64(s.n) - m*m
	if v < 0 { // float drift
		v = 0
	}
	return math.Sqrt(v)
}

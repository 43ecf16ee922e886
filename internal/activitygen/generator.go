// Package activitygen produces synthetic employee activity logs and fits
// reference model parameters from them, so the scoring pipeline can be run
// end to end without real telemetry.
package activitygen

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/features"
)

// roleProfile is a role's behavioral baseline: typical login hour, daily
// file-access and email volumes, and USB usage probability.
type roleProfile struct {
	loginMean  float64
	filesLam   float64
	emailsLam  float64
	usbProb    float64
	roleWeight float64
}

var roleProfiles = map[string]roleProfile{
	"engineer": {9, 8, 12, 0.15, 0.35},
	"analyst":  {9, 15, 20, 0.05, 0.25},
	"manager":  {8, 5, 25, 0.03, 0.15},
	"admin":    {10, 20, 8, 0.25, 0.15},
	"intern":   {9, 4, 6, 0.02, 0.10},
}

var roleOrder = []string{"engineer", "analyst", "manager", "admin", "intern"}

// Generator produces deterministic synthetic activity for a fixed seed.
type Generator struct {
	rng         *rand.Rand
	anomalyRate float64
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithAnomalyRate sets the per-day probability of injecting an anomalous
// activity pattern.
func WithAnomalyRate(rate float64) Option {
	return func(g *Generator) {
		if rate >= 0 && rate <= 1 {
			g.anomalyRate = rate
		}
	}
}

// NewGenerator creates a generator seeded for reproducible output.
func NewGenerator(seed int64, opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewSource(seed)),
		anomalyRate: 0.02,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces numUsers employees, each with numDays of activity.
// Employee IDs are UUIDs derived from the seeded stream so repeated runs
// with the same seed produce identical logs.
func (g *Generator) Generate(numUsers, numDays int) []features.ActivityRow {
	rows := make([]features.ActivityRow, 0, numUsers*numDays)
	for u := 0; u < numUsers; u++ {
		id := g.employeeID()
		role := g.pickRole()
		profile := roleProfiles[role]
		personalOffset := g.rng.NormFloat64() * 0.5

		for day := 0; day < numDays; day++ {
			rows = append(rows, g.dayActivity(id, role, profile, personalOffset, day))
		}
	}
	return rows
}

func (g *Generator) dayActivity(id, role string, p roleProfile, offset float64, day int) features.ActivityRow {
	isWeekend := day%7 >= 5
	filesScale, emailsScale := 1.0, 1.0
	vpnProb := 0.4
	if isWeekend {
		filesScale, emailsScale = 0.3, 0.2
		vpnProb = 0.15
	}

	row := features.ActivityRow{
		EmployeeID:     id,
		Role:           role,
		Day:            day,
		IsWeekend:      isWeekend,
		LoginHour:      clampHour(p.loginMean + offset + g.rng.NormFloat64()*1.2),
		FilesAccessed:  g.poisson(p.filesLam * filesScale),
		FailedLogins:   g.binomial(4, 0.04),
		SensitiveFiles: g.binomial(3, 0.06),
		EmailsSent:     g.poisson(p.emailsLam * emailsScale),
		USBUsage:       g.bernoulli(p.usbProb),
		AfterHours:     g.poisson(0.3),
		VPNConnections: g.bernoulli(vpnProb),
	}

	if g.rng.Float64() < g.anomalyRate {
		g.injectAnomaly(&row)
	}
	return row
}

// injectAnomaly overwrites a day with exfiltration-style behavior: odd-hour
// logins, bulk file access, sensitive file spikes, credential failures.
func (g *Generator) injectAnomaly(row *features.ActivityRow) {
	oddHours := []int{0, 1, 2, 3, 4, 22, 23}
	row.LoginHour = oddHours[g.rng.Intn(len(oddHours))]
	row.FilesAccessed = 80 + g.rng.Intn(220)
	row.SensitiveFiles = 8 + g.rng.Intn(17)
	row.FailedLogins += 3 + g.rng.Intn(5)
	row.EmailsSent = 50 + g.rng.Intn(70)
	row.USBUsage = 1
	row.AfterHours = 3 + g.rng.Intn(5)
	if row.IsWeekend {
		row.VPNConnections = 1
	}
}

func (g *Generator) employeeID() string {
	var b [16]byte
	g.rng.Read(b[:]) //nolint:errcheck // rand.Rand.Read never fails
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.NewString()
	}
	return "emp-" + id.String()[:8]
}

func (g *Generator) pickRole() string {
	r := g.rng.Float64()
	acc := 0.0
	for _, role := range roleOrder {
		acc += roleProfiles[role].roleWeight
		if r < acc {
			return role
		}
	}
	return roleOrder[len(roleOrder)-1]
}

// poisson samples via Knuth's product method; fine for the small lambdas
// used here.
func (g *Generator) poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func (g *Generator) binomial(n int, p float64) int {
	count := 0
	for i := 0; i < n; i++ {
		if g.rng.Float64() < p {
			count++
		}
	}
	return count
}

func (g *Generator) bernoulli(p float64) int {
	if g.rng.Float64() < p {
		return 1
	}
	return 0
}

func clampHour(h float64) int {
	v := int(h)
	if v < 0 {
		return 0
	}
	if v > 23 {
		return 23
	}
	return v
}

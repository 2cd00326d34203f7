package safety

import (
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
)

// Scores reported per status
const (
	scoreCompliant = 1.0
	scoreMinor     = 0.7
	scoreMajor     = 0.4
	scoreCritical  = 0.1
	scoreNoPerson  = 0.5
	scoreError     = 0.0
)

// Aggregate turns raw PPE detections into a SafetyResult.
// Status follows the violation count: 0 compliant, 1 minor, 2 major, more is critical.
func Aggregate(d provider.PPEDetection) domain.SafetyResult {
	if d.PersonsDetected <= 0 {
		return domain.SafetyResult{
			Status:      domain.SafetyNoPersonDetected,
			Violations:  []string{domain.ViolationNoPerson},
			SafetyScore: scoreNoPerson,
		}
	}

	res := domain.SafetyResult{
		HasHelmet:       d.HasHelmet(),
		HasVest:         d.HasVest(),
		PersonsDetected: d.PersonsDetected,
		Violations:      []string{},
	}

	if !res.HasHelmet {
		res.Violations = append(res.Violations, domain.ViolationHardHat)
	}
	if !res.HasVest {
		res.Violations = append(res.Violations, domain.ViolationVest)
	}
	for _, label := range d.Labels {
		res.Violations = appendUnique(res.Violations, label)
	}

	switch n := len(res.Violations); {
	case n == 0:
		res.Status, res.SafetyScore = domain.SafetyCompliant, scoreCompliant
	case n == 1:
		res.Status, res.SafetyScore = domain.SafetyMinorViolation, scoreMinor
	case n == 2:
		res.Status, res.SafetyScore = domain.SafetyMajorViolation, scoreMajor
	default:
		res.Status, res.SafetyScore = domain.SafetyCritical, scoreCritical
	}

	return res
}

// SystemError is the result reported when the classifier call failed
func SystemError() domain.SafetyResult {
	return domain.SafetyResult{
		Status:      domain.SafetySystemError,
		Violations:  []string{domain.ViolationSystemError},
		SafetyScore: scoreError,
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

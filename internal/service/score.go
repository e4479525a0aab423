package service

import (
	"github.com/asramahub/asrama-go-api/internal/config"
	"github.com/asramahub/asrama-go-api/internal/models"
)

// conductScore derives a student's conduct score from their disciplinary
// ledger: the base score minus the configured deduction for every
// non-cancelled action, floored at zero. excludeID, when non-zero, skips
// one action so in-place edits can be projected without double counting.
// The score is always re-derived from the ledger; no running total is
// stored anywhere.
func conductScore(actions []models.DisciplinaryAction, points config.SeverityPoints, base int, excludeID uint) int {
	score := base
	for _, action := range actions {
		if excludeID != 0 && action.ID == excludeID {
			continue
		}
		if !action.Counted() {
			continue
		}
		score -= points[action.Severity]
	}

	if score < 0 {
		return 0
	}
	if score > base {
		return base
	}
	return score
}

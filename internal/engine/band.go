package engine

import (
	"github.com/rishicodesforfun/menta-question/internal/domain"
)

// Classify returns the band whose closed range contains score. Bands are
// verified to partition their axis at load time, so a miss means the
// instrument was never validated.
func Classify(score float64, bands []domain.Band) (domain.Band, error) {
	for _, b := range bands {
		if b.Contains(score) {
			return b, nil
		}
	}
	return domain.Band{}, domain.NewConfigError("", "bands", "no band contains score %g", score)
}

// MustClassify is Classify for validated instruments. A miss is a
// programmer error and panics.
func MustClassify(instrumentID string, score float64, bands []domain.Band) domain.Band {
	for _, b := range bands {
		if b.Contains(score) {
			return b
		}
	}
	panic(domain.NewConfigError(instrumentID, "bands", "no band contains score %g", score))
}

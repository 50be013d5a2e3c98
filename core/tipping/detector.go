// Package tipping finds the year a challenger technology's cost
// sustainably undercuts the incumbent's.
package tipping

import (
	"fmt"

	"github.com/enervision/transition/core/model"
)

// Detector scans aligned cost curves for a sustained crossover.
type Detector struct {
	// PersistenceYears is the number of consecutive cheaper years
	// required to confirm a tipping point.
	PersistenceYears int
}

// NewDetector returns a Detector with the given persistence window.
// Values below 1 fall back to the 3-year default.
func NewDetector(persistenceYears int) Detector {
	if persistenceYears < 1 {
		persistenceYears = 3
	}
	return Detector{PersistenceYears: persistenceYears}
}

// Detect returns the first year the challenger is cheaper than the
// incumbent for the full persistence window. Curves are aligned on the
// intersection of their year ranges; candidates too close to the horizon
// end to confirm persistence are never selected.
func (d Detector) Detect(challenger, incumbent model.CostCurve) (model.TippingPoint, error) {
	if challenger.Series.IsEmpty() || incumbent.Series.IsEmpty() {
		return model.TippingPoint{}, fmt.Errorf("tipping: empty cost curve for %s or %s", challenger.Technology, incumbent.Technology)
	}
	years := model.AlignYears(challenger.Series, incumbent.Series)
	notFound := model.TippingPoint{Found: false, PersistenceYears: d.PersistenceYears}
	if len(years) < d.PersistenceYears {
		return notFound, nil
	}

	cheaper := make([]bool, len(years))
	for i, y := range years {
		cv, _ := challenger.Series.At(y)
		iv, _ := incumbent.Series.At(y)
		cheaper[i] = cv < iv
	}

	for i := 0; i+d.PersistenceYears <= len(years); i++ {
		sustained := true
		for j := i; j < i+d.PersistenceYears; j++ {
			if !cheaper[j] {
				sustained = false
				break
			}
		}
		if sustained {
			return model.TippingPoint{Year: years[i], Found: true, PersistenceYears: d.PersistenceYears}, nil
		}
	}
	return notFound, nil
}

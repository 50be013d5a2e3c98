// Package repository defines the data facade the forecast engine reads
// historical series from. Implementations own all I/O; the engine never
// performs any itself.
package repository

import (
	"errors"
	"fmt"

	"github.com/enervision/transition/core/model"
)

// ErrDataNotFound is returned when a requested historical series is
// absent. Callers substitute a documented fallback or abort the
// technology's forecast, recording the omission either way.
var ErrDataNotFound = errors.New("historical series not found")

// ValidationError reports a loaded series with out-of-physical-range
// values. The series must be rejected, not repaired.
type ValidationError struct {
	Series string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("series %s rejected: %s", e.Series, e.Reason)
}

// SeriesRepository supplies historical (year, value) series by
// technology and region. Lookups are synchronous; all data is loaded
// before the engine runs. Implementations are scoped to one forecast
// run, never cached across runs.
type SeriesRepository interface {
	// CostSeries returns the unit cost history of a technology.
	// Fails with ErrDataNotFound when absent.
	CostSeries(technology, region string) (model.TimeSeries, error)

	// DemandSeries returns the demand history of a technology or of
	// the market entity itself.
	DemandSeries(entity, region string) (model.TimeSeries, error)

	// InstalledBaseSeries returns the stock history of a technology.
	// Some technologies legitimately have none; that degrades to an
	// empty series with a nil error, not ErrDataNotFound.
	InstalledBaseSeries(technology, region string) (model.TimeSeries, error)
}

// TaxonomyRepository lists the technologies of a market.
type TaxonomyRepository interface {
	// Technologies returns the taxonomy entries for a market. The set
	// must contain exactly one market entity and one incumbent.
	Technologies(market, region string) ([]model.Technology, error)
}

// Package export renders forecast results for downstream consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/enervision/transition/core/model"
)

// Result bundles a forecast with its validation report.
type Result struct {
	Forecast   model.MarketForecast    `json:"forecast"`
	Validation *model.ValidationReport `json:"validation,omitempty"`
}

// WriteJSON writes the result to w as indented JSON.
func WriteJSON(w io.Writer, res Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes the forecast to w in long format, one row per year
// and technology, ordered by year then technology name.
func WriteCSV(w io.Writer, mf model.MarketForecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "technology", "demand", "share", "market_total"}); err != nil {
		return err
	}
	names := mf.Technologies()
	sort.Strings(names)
	for i, year := range mf.Years {
		for _, name := range names {
			rec := []string{
				strconv.Itoa(year),
				name,
				strconv.FormatFloat(mf.Demand[name][i], 'f', -1, 64),
				strconv.FormatFloat(mf.Share[name][i], 'f', -1, 64),
				strconv.FormatFloat(mf.MarketTotal[i], 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

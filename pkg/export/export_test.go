package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/enervision/transition/core/model"
)

func sampleForecast() model.MarketForecast {
	return model.MarketForecast{
		Market:      "road_transport",
		Region:      "eu",
		Years:       []int{2025, 2026},
		MarketTotal: []float64{100, 110},
		Demand: map[string][]float64{
			"ice": {90, 88},
			"bev": {10, 22},
		},
		Share: map[string][]float64{
			"ice": {0.9, 0.8},
			"bev": {0.1, 0.2},
		},
		Roles: map[string]model.Role{
			"ice": model.RoleIncumbent,
			"bev": model.RoleDisruptor,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleForecast()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 5 { // header + 2 years x 2 technologies
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	header := strings.Join(rows[0], ",")
	if header != "year,technology,demand,share,market_total" {
		t.Fatalf("header = %s", header)
	}
	// rows ordered by year then name
	if rows[1][0] != "2025" || rows[1][1] != "bev" {
		t.Fatalf("first row = %v", rows[1])
	}
	if rows[2][1] != "ice" || rows[2][2] != "90" {
		t.Fatalf("second row = %v", rows[2])
	}
	if rows[3][0] != "2026" {
		t.Fatalf("third row = %v", rows[3])
	}
}

func TestWriteJSON(t *testing.T) {
	report := model.NewValidationReport()
	report.AddWarning("hybrid share declines")

	var buf bytes.Buffer
	if err := WriteJSON(&buf, Result{Forecast: sampleForecast(), Validation: report}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var back Result
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Forecast.Market != "road_transport" {
		t.Fatalf("market = %s", back.Forecast.Market)
	}
	if back.Forecast.Demand["bev"][1] != 22 {
		t.Fatalf("bev demand = %v", back.Forecast.Demand["bev"])
	}
	if back.Validation == nil || len(back.Validation.Warnings) != 1 {
		t.Fatalf("validation = %+v", back.Validation)
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"

	"rancher-dashboard/models"
	"rancher-dashboard/services"
	"rancher-dashboard/utils"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	logger := utils.NewDiscardLogger()

	raw := []models.RawRecord{
		{State: "Iowa", Year: "2012", TotalPopulation: 1000, TotalRegistered: 500, FarmersNoFeed: 50, FarmersFeed: 120},
		{State: "Texas", Year: "2012", TotalPopulation: 4000, TotalRegistered: 2000, FarmersNoFeed: 80, FarmersFeed: 200},
		{State: "Iowa", Year: "2017", TotalPopulation: 1100, TotalRegistered: 0, FarmersNoFeed: 45, FarmersFeed: 110},
		{State: "Texas", Year: "2017", TotalPopulation: 4400, TotalRegistered: 2100, FarmersNoFeed: 85, FarmersFeed: 210},
	}
	lookup := []models.StateCode{{State: "Iowa", Code: "IA"}, {State: "Texas", Code: "TX"}}

	ds, err := services.NewEnricher(logger).Enrich(raw, lookup)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	d, err := NewDashboard(ds, time.Minute, logger)
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}

	r := mux.NewRouter()
	d.Register(r)
	return r
}

func get(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIndexRendersDefaultMetric(t *testing.T) {
	rec := get(t, newTestRouter(t), "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Rancher Numbers Dashboard",
		"Geographic Distribution",
		"Data Table for the selected metric in 2012",
		"Data Table for the selected metric in 2017",
		`value="` + models.DefaultMetricKey + `" selected`,
		"/api/v1/map.png?metric=" + models.DefaultMetricKey,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Index(body, "in 2012") > strings.Index(body, "in 2017") {
		t.Error("year sections should appear in ascending order")
	}
}

func TestIndexShowsNotAvailable(t *testing.T) {
	rec := get(t, newTestRouter(t), "/?metric="+models.MetricFeedPerVoter)

	if !strings.Contains(rec.Body.String(), "N/A") {
		t.Error("zero-registered row should render as N/A")
	}
}

func TestIndexUnknownMetric(t *testing.T) {
	rec := get(t, newTestRouter(t), "/?metric=bogus")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "unknown metric") {
		t.Errorf("page should explain the error, got %q", body)
	}
	if strings.Contains(body, "Geographic Distribution") {
		t.Error("figures should not render for an unknown metric")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/metrics")

	var got struct {
		Default string `json:"default"`
		Metrics []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
		} `json:"metrics"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Default != models.DefaultMetricKey {
		t.Errorf("default: got %q", got.Default)
	}
	if len(got.Metrics) != len(models.Metrics()) {
		t.Errorf("metrics: got %d, want %d", len(got.Metrics), len(models.Metrics()))
	}
}

func TestTableEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/table?metric="+models.MetricFarmersNoFeed+"&year=2012")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var table models.DisplayTable
	if err := json.NewDecoder(rec.Body).Decode(&table); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[0].State != "Texas" {
		t.Errorf("rows should be sorted descending, got %+v", table.Rows)
	}
}

func TestTableEndpointErrors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown metric", "/api/v1/table?metric=bogus&year=2012"},
		{"unknown year", "/api/v1/table?metric=" + models.MetricFarmersFeed + "&year=1999"},
		{"missing year", "/api/v1/table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, r, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestTablesEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/tables?metric="+models.MetricFeedPerVoter)

	var tables []models.DisplayTable
	if err := json.NewDecoder(rec.Body).Decode(&tables); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("tables: got %d, want 2", len(tables))
	}
	last := tables[1].Rows[len(tables[1].Rows)-1]
	if last.State != "Iowa" || last.Value != nil {
		t.Errorf("unavailable row should sort last with a null value, got %+v", last)
	}
}

func TestMapEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/map")

	var fig models.MapFigure
	if err := json.NewDecoder(rec.Body).Decode(&fig); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fig.Metric != models.DefaultMetricKey {
		t.Errorf("metric: got %q", fig.Metric)
	}
	if len(fig.Facets) != 2 || fig.Facets[0].Year != "2012" {
		t.Errorf("facets: got %+v", fig.Facets)
	}
}

func TestMapPNGEndpoint(t *testing.T) {
	r := newTestRouter(t)

	first := get(t, r, "/api/v1/map.png?metric="+models.MetricNoFeedPerPerson)
	if first.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", first.Code)
	}
	if ct := first.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(first.Body.Bytes())); err != nil {
		t.Fatalf("decode png: %v", err)
	}

	second := get(t, r, "/api/v1/map.png?metric="+models.MetricNoFeedPerPerson)
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached map should be served unchanged")
	}

	if rec := get(t, r, "/api/v1/map.png?metric=bogus"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown metric status: got %d, want 400", rec.Code)
	}
}

func TestTableCSVEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/table.csv?metric="+models.MetricFeedPerVoter+"&year=2017")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "2017") {
		t.Errorf("content disposition: got %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "State,State Code,") {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[2] != "Iowa,IA,N/A" {
		t.Errorf("last row: got %q", lines[2])
	}
}

func TestTablesXLSXEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/tables.xlsx")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "2012" || sheets[1] != "2017" {
		t.Errorf("sheets: got %v", sheets)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(t), "/api/v1/health")

	var body struct {
		Status  string   `json:"status"`
		Records int      `json:"records"`
		Years   []string `json:"years"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Records != 4 || len(body.Years) != 2 {
		t.Errorf("health: got %+v", body)
	}
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	d := &Dashboard{logger: utils.NewDiscardLogger()}
	rec := httptest.NewRecorder()

	d.writeJSON(rec, http.StatusOK, map[string]float64{"value": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

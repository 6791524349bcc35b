package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"rancher-dashboard/models"
	"rancher-dashboard/render"
	"rancher-dashboard/services"
	"rancher-dashboard/storage"
	"rancher-dashboard/utils"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// Dashboard serves the dashboard page and its data endpoints over one
// read-only dataset.
type Dashboard struct {
	dataset   *models.Dataset
	projector *services.Projector
	formatter *services.Formatter
	renderer  *render.MapRenderer
	maps      *cache.Cache
	logger    *utils.Logger
	page      *template.Template
}

// NewDashboard prepares the handlers. Rendered maps are kept for mapTTL.
func NewDashboard(ds *models.Dataset, mapTTL time.Duration, logger *utils.Logger) (*Dashboard, error) {
	printer := message.NewPrinter(language.English)

	page, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"value": func(v *float64) string {
			if v == nil {
				return storage.NotAvailable
			}
			return printer.Sprint(number.Decimal(*v, number.MaxFractionDigits(services.DisplayDecimals)))
		},
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: parse dashboard template: %w", err)
	}

	return &Dashboard{
		dataset:   ds,
		projector: services.NewProjector(logger),
		formatter: services.NewFormatter(logger),
		renderer:  render.NewMapRenderer(logger),
		maps:      cache.New(mapTTL, 2*mapTTL),
		logger:    logger,
		page:      page,
	}, nil
}

// Register mounts the page on r and the data endpoints under /api/v1.
func (d *Dashboard) Register(r *mux.Router) {
	r.HandleFunc("/", d.Index).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", d.Health).Methods(http.MethodGet)
	api.HandleFunc("/metrics", d.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/map", d.Map).Methods(http.MethodGet)
	api.HandleFunc("/map.png", d.MapPNG).Methods(http.MethodGet)
	api.HandleFunc("/table", d.Table).Methods(http.MethodGet)
	api.HandleFunc("/tables", d.Tables).Methods(http.MethodGet)
	api.HandleFunc("/table.csv", d.TableCSV).Methods(http.MethodGet)
	api.HandleFunc("/tables.xlsx", d.TablesXLSX).Methods(http.MethodGet)
}

type pageData struct {
	Title    string
	Metrics  []models.Metric
	Selected string
	MapURL   string
	Tables   []*models.DisplayTable
	Error    string
}

// Index renders the dashboard for the selected metric. Formatting errors are
// shown on the page instead of the figures.
func (d *Dashboard) Index(w http.ResponseWriter, r *http.Request) {
	key := metricParam(r)
	data := pageData{
		Metrics:  models.Metrics(),
		Selected: key,
		MapURL:   "/api/v1/map.png?metric=" + url.QueryEscape(key),
	}

	status := http.StatusOK
	tables, err := d.formatter.FormatAll(d.dataset, key)
	if err != nil {
		d.logger.Warn("[dashboard] %v", err)
		status = statusFor(err)
		data.Error = err.Error()
	} else {
		m, _ := models.LookupMetric(key)
		data.Title = m.Title
		data.Tables = tables
	}

	var buf bytes.Buffer
	if err := d.page.Execute(&buf, data); err != nil {
		d.logger.Error("[dashboard] render page: %v", err)
		d.writeError(w, http.StatusInternalServerError, "could not render dashboard")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Health reports liveness and what was loaded.
func (d *Dashboard) Health(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": d.dataset.Len(),
		"years":   d.dataset.Years(),
	})
}

// Metrics lists the dropdown options.
func (d *Dashboard) Metrics(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, map[string]interface{}{
		"default": models.DefaultMetricKey,
		"metrics": models.Metrics(),
	})
}

// Map returns the faceted choropleth description as JSON.
func (d *Dashboard) Map(w http.ResponseWriter, r *http.Request) {
	fig, err := d.projector.Project(d.dataset, metricParam(r))
	if err != nil {
		d.fail(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, fig)
}

// MapPNG returns the rendered choropleth, cached per metric.
func (d *Dashboard) MapPNG(w http.ResponseWriter, r *http.Request) {
	key := metricParam(r)
	cacheKey := "map:" + key

	img, found := d.maps.Get(cacheKey)
	if !found {
		fig, err := d.projector.Project(d.dataset, key)
		if err != nil {
			d.fail(w, err)
			return
		}
		data, err := d.renderer.PNG(fig)
		if err != nil {
			d.fail(w, err)
			return
		}
		d.maps.SetDefault(cacheKey, data)
		img = data
		d.logger.Debug("[dashboard] Rendered map for %s (%d bytes)", key, len(data))
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(img.([]byte))
}

// Table returns one year's display table as JSON.
func (d *Dashboard) Table(w http.ResponseWriter, r *http.Request) {
	table, err := d.formatter.Format(d.dataset, metricParam(r), r.URL.Query().Get("year"))
	if err != nil {
		d.fail(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, table)
}

// Tables returns the display tables of every year as JSON.
func (d *Dashboard) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := d.formatter.FormatAll(d.dataset, metricParam(r))
	if err != nil {
		d.fail(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, tables)
}

// TableCSV streams one year's display table as a CSV download.
func (d *Dashboard) TableCSV(w http.ResponseWriter, r *http.Request) {
	key := metricParam(r)
	year := r.URL.Query().Get("year")

	table, err := d.formatter.Format(d.dataset, key, year)
	if err != nil {
		d.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := storage.NewCSVWriter(&buf).WriteTable(table); err != nil {
		d.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, key, year))
	w.Write(buf.Bytes())
}

// TablesXLSX streams a workbook with one sheet per year.
func (d *Dashboard) TablesXLSX(w http.ResponseWriter, r *http.Request) {
	key := metricParam(r)

	tables, err := d.formatter.FormatAll(d.dataset, key)
	if err != nil {
		d.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := storage.WriteTablesXLSX(&buf, tables); err != nil {
		d.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, key))
	w.Write(buf.Bytes())
}

func (d *Dashboard) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		d.logger.Error("[dashboard] %v", err)
	} else {
		d.logger.Debug("[dashboard] Rejected request: %v", err)
	}
	d.writeError(w, status, err.Error())
}

// metricParam returns the requested metric key, or the default when the
// query leaves it out.
func metricParam(r *http.Request) string {
	if key := r.URL.Query().Get("metric"); key != "" {
		return key
	}
	return models.DefaultMetricKey
}

func statusFor(err error) int {
	if errors.Is(err, services.ErrUnknownMetric) || errors.Is(err, services.ErrUnknownYear) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of an empty 200.
func (d *Dashboard) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		d.logger.Error("[dashboard] encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "could not encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func (d *Dashboard) writeError(w http.ResponseWriter, status int, msg string) {
	d.writeJSON(w, status, map[string]string{"error": msg})
}

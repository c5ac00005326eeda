package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Exarkun1/pylab4/internal/analytics"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/middleware"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/services"
)

var t0 = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

type fakeTableService struct {
	table   *models.Table
	columns []string
}

func (f *fakeTableService) Table() (*models.Table, error) {
	if f.table == nil {
		return nil, services.ErrNoTable
	}
	return f.table, nil
}

func (f *fakeTableService) Source() string {
	if f.table == nil {
		return ""
	}
	return "sheet:Storage"
}

func (f *fakeTableService) Column(name string) (*analytics.Series, error) {
	table, err := f.Table()
	if err != nil {
		return nil, err
	}
	return table.Column(name)
}

func (f *fakeTableService) Extremes(column string, global bool) ([]analytics.Extremum, error) {
	series, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	a, err := analytics.NewAnalyser(series)
	if err != nil {
		return nil, err
	}
	return a.FindExtremes(global)
}

func (f *fakeTableService) DrawTo(_ context.Context, w io.Writer, columns []string) error {
	if _, err := f.Table(); err != nil {
		return err
	}
	f.columns = columns
	_, err := io.WriteString(w, "<svg></svg>")
	return err
}

func newTestApp(svc TableService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.NewNop())})
	h := New(logging.NewNop(), svc, "test")
	app.Get("/v1/table", h.GetTable)
	app.Get("/v1/table/columns/:column", h.GetColumn)
	app.Get("/v1/extremes", h.GetExtremes)
	app.Get("/v1/chart", h.GetChart)
	return app
}

func sampleTable() *models.Table {
	table := models.NewTable()
	for i, v := range []float64{3, 1, 4, 1, 5} {
		table.Set(t0.Add(time.Duration(i)*24*time.Hour), "Open", v)
	}
	table.Set(t0, "Autocor", math.NaN())
	return table
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandlers_NoTable(t *testing.T) {
	app := newTestApp(&fakeTableService{})

	for _, target := range []string{
		"/v1/table",
		"/v1/table/columns/Open",
		"/v1/extremes?column=Open",
		"/v1/chart?columns=Open",
	} {
		t.Run(target, func(t *testing.T) {
			resp, body := get(t, app, target)
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

			var errResp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, services.CodeNoTable, errResp.Error.Code)
		})
	}
}

func TestHandlers_GetTable(t *testing.T) {
	app := newTestApp(&fakeTableService{table: sampleTable()})

	resp, body := get(t, app, "/v1/table")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var table models.TableResponse
	require.NoError(t, json.Unmarshal(body, &table))
	assert.Equal(t, []string{"Open", "Autocor"}, table.Columns)
	assert.Equal(t, 5, table.Count)
	assert.Nil(t, table.Rows[0].Values["Autocor"], "NaN is encoded as null")
}

func TestHandlers_GetColumn(t *testing.T) {
	app := newTestApp(&fakeTableService{table: sampleTable()})

	resp, body := get(t, app, "/v1/table/columns/Open")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var col models.ColumnResponse
	require.NoError(t, json.Unmarshal(body, &col))
	assert.Equal(t, "Open", col.Column)
	assert.Equal(t, 5, col.Count)
	require.NotNil(t, col.Points[2].Value)
	assert.Equal(t, 4.0, *col.Points[2].Value)
	assert.Equal(t, t0.Add(48*time.Hour).Format(time.RFC3339), col.Points[2].Time)

	resp, _ = get(t, app, "/v1/table/columns/Volume")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandlers_GetExtremes(t *testing.T) {
	app := newTestApp(&fakeTableService{table: sampleTable()})

	resp, body := get(t, app, "/v1/extremes?column=Open&global=true")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ext models.ExtremesResponse
	require.NoError(t, json.Unmarshal(body, &ext))
	assert.True(t, ext.Global)
	require.Len(t, ext.Extremes, 2)
	assert.Equal(t, "Min", ext.Extremes[0].Type)
	assert.Equal(t, 1, ext.Extremes[0].Index)
	assert.Equal(t, "Max", ext.Extremes[1].Type)
	assert.Equal(t, 5.0, *ext.Extremes[1].Value)

	resp, body = get(t, app, "/v1/extremes?column=Open")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &ext))
	assert.False(t, ext.Global)
	assert.Len(t, ext.Extremes, 3)
}

func TestHandlers_GetExtremesBadParams(t *testing.T) {
	app := newTestApp(&fakeTableService{table: sampleTable()})

	tests := []string{
		"/v1/extremes",
		"/v1/extremes?column=Open&global=maybe",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			resp, body := get(t, app, target)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var errResp models.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, services.CodeInvalidArgument, errResp.Error.Code)
		})
	}
}

func TestHandlers_GetChart(t *testing.T) {
	svc := &fakeTableService{table: sampleTable()}
	app := newTestApp(svc)

	resp, body := get(t, app, "/v1/chart?columns=Open,%20Autocor,")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "<svg></svg>", string(body))
	assert.Equal(t, []string{"Open", "Autocor"}, svc.columns)

	resp, _ = get(t, app, "/v1/chart")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlers_ServiceErrorDetails(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.NewNop())})
	app.Get("/x", func(c *fiber.Ctx) error {
		return fmt.Errorf("extremes: %w", analytics.ErrInvalidInput)
	})

	resp, body := get(t, app, "/x")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), services.CodeInvalidInput)
}

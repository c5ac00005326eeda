package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
)

func TestHandler_Health(t *testing.T) {
	handler := New(logging.NewNop(), &fakeTableService{}, "1.2.3")

	app := fiber.New()
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var healthResp models.HealthResponse
	if err := json.Unmarshal(body, &healthResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if healthResp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", healthResp.Status)
	}
	if healthResp.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", healthResp.Version)
	}
	if healthResp.Timestamp == "" {
		t.Error("Expected non-empty timestamp")
	}
	if healthResp.Table.Loaded {
		t.Error("Expected no table before a load")
	}
}

func TestHandler_HealthReportsTable(t *testing.T) {
	table := models.NewTable()
	table.Set(t0, "Open", 1)
	table.Set(t0.Add(24*time.Hour), "Open", 2)
	handler := New(logging.NewNop(), &fakeTableService{table: table}, "dev")

	app := fiber.New()
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	var healthResp models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !healthResp.Table.Loaded {
		t.Fatal("Expected loaded table")
	}
	if healthResp.Table.Source != "sheet:Storage" {
		t.Errorf("Expected source 'sheet:Storage', got '%s'", healthResp.Table.Source)
	}
	if healthResp.Table.Rows != 2 {
		t.Errorf("Expected 2 rows, got %d", healthResp.Table.Rows)
	}
	if len(healthResp.Table.Columns) != 1 || healthResp.Table.Columns[0] != "Open" {
		t.Errorf("Expected columns [Open], got %v", healthResp.Table.Columns)
	}
}

func TestHandler_NotFound(t *testing.T) {
	handler := New(logging.NewNop(), nil, "dev")

	app := fiber.New()
	app.Use(handler.NotFound)

	resp, err := app.Test(httptest.NewRequest("GET", "/nonexistent", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if errResp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected error code 'NOT_FOUND', got '%s'", errResp.Error.Code)
	}
	if errResp.Error.Path != "/nonexistent" {
		t.Errorf("Expected path '/nonexistent', got '%s'", errResp.Error.Path)
	}
}

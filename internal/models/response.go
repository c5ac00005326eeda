package models

// HealthResponse reports the API status and whether a table is loaded.
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Table     TableStatus `json:"table"`
}

// TableStatus summarises the current table.
type TableStatus struct {
	Loaded  bool     `json:"loaded"`
	Source  string   `json:"source,omitempty"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns,omitempty"`
}

// PointView represents a single timestamped value in column results
type PointView struct {
	Time  string   `json:"time"`
	Value *float64 `json:"value"`
}

// ColumnResponse represents one column of the current table
type ColumnResponse struct {
	Column string      `json:"column"`
	Points []PointView `json:"points"`
	Count  int         `json:"count"`
}

// ExtremumView represents one extremum of a column
type ExtremumView struct {
	Index int      `json:"index"`
	Time  string   `json:"time"`
	Value *float64 `json:"value"`
	Type  string   `json:"type"`
}

// ExtremesResponse represents extremum search results
type ExtremesResponse struct {
	Column   string         `json:"column"`
	Global   bool           `json:"global"`
	Extremes []ExtremumView `json:"extremes"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Float returns a JSON-safe pointer to v, nil when v is NaN or infinite.
func Float(v float64) *float64 {
	return finite(v)
}

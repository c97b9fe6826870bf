package repository

import (
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// rowsFromResults flattens the SurrealDB response wrappers
// ({status: "OK", result: [...]}) of a Query call into plain row maps.
func rowsFromResults(results []interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0)
	for _, result := range results {
		resp, ok := result.(map[string]interface{})
		if !ok {
			continue
		}
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				for _, item := range resultData {
					if row, ok := item.(map[string]interface{}); ok {
						rows = append(rows, row)
					}
				}
			}
		}
	}
	return rows
}

// rowFromResult unwraps a QueryOne result into a row map.
func rowFromResult(result interface{}) (map[string]interface{}, bool) {
	if result == nil {
		return nil, false
	}
	if row, ok := result.(map[string]interface{}); ok {
		// QueryOne may hand back either the record itself or a still
		// wrapped response.
		if status, hasStatus := row["status"].(string); hasStatus && status == "OK" {
			if resultData, ok := row["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, false
				}
				if inner, ok := resultData[0].(map[string]interface{}); ok {
					return inner, true
				}
				return nil, false
			}
		}
		return row, true
	}
	return nil, false
}

// extractCount extracts count from a SurrealDB count query result
func extractCount(result interface{}) int {
	if row, ok := rowFromResult(result); ok {
		return int(getInt64(row, "count"))
	}
	return 0
}

// getString extracts a string value from a row
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a row
func getInt(m map[string]interface{}, key string) int {
	return int(getInt64(m, key))
}

// getInt64 extracts an integer value from a row, tolerating the numeric
// types the CBOR decoder may produce.
func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	}
	return 0
}

// getFloat extracts a float value from a row
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// getBool extracts a bool value from a row
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a row
func getTime(m map[string]interface{}, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	case models.CustomDateTime:
		return v.Time
	case *models.CustomDateTime:
		if v != nil {
			return v.Time
		}
	}
	return time.Time{}
}

package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"consolidator/internal/shipment"
)

// formatFloat formats a float64 value with exactly 2 decimal places.
// Non-finite values render empty.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders one table cell for CSV output. Undefined metrics are
// empty strings.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return formatFloat(x)
	case bool:
		return formatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case shipment.NullFloat:
		if !x.Valid {
			return ""
		}
		return formatFloat(x.Value)
	case shipment.NullInt:
		if !x.Valid {
			return ""
		}
		return strconv.Itoa(x.Value)
	default:
		return fmt.Sprint(x)
	}
}

// workbookValue converts a table cell to a value excelize stores natively.
// Undefined metrics become nil, which leaves the cell empty.
func workbookValue(v interface{}) interface{} {
	switch x := v.(type) {
	case shipment.NullFloat:
		if !x.Valid {
			return nil
		}
		return x.Value
	case shipment.NullInt:
		if !x.Valid {
			return nil
		}
		return x.Value
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

package utils

// Helpers for pulling values out of loosely typed device payloads. ESP32
// firmware omits fields it has no reading for, so absent keys fall back to a
// caller-chosen default instead of erroring.

// ExtractNumber reads a numeric field from a decoded JSON map, returning def
// when the key is absent or not a number.
func ExtractNumber(payload map[string]interface{}, field string, def float64) float64 {
	if payload == nil {
		return def
	}
	if v, ok := payload[field]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// ExtractString reads a string field from a decoded JSON map, returning ""
// when absent or not a string.
func ExtractString(payload map[string]interface{}, field string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ExtractMap reads a nested object field, returning nil when absent.
func ExtractMap(payload map[string]interface{}, field string) map[string]interface{} {
	if payload == nil {
		return nil
	}
	if v, ok := payload[field]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// ExtractInt reads a numeric field as an int, returning def when absent.
func ExtractInt(payload map[string]interface{}, field string, def int) int {
	return int(ExtractNumber(payload, field, float64(def)))
}

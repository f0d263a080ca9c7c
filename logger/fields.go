package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldService      = "service"
	FieldComponent    = "component"
	FieldInterface    = "interface"
	FieldMethod       = "method"
	FieldHTTPMethod   = "http_method"
	FieldURL          = "url"
	FieldStatus       = "status"
	FieldInvocationID = "invocation_id"
	FieldAttempt      = "attempt"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("bound", logger.Fields("interface", "users", "methods", 4))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// CallFields creates the fields describing one outbound call.
func CallFields(iface, method, httpMethod, url string) map[string]interface{} {
	return map[string]interface{}{
		FieldInterface:  iface,
		FieldMethod:     method,
		FieldHTTPMethod: httpMethod,
		FieldURL:        url,
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}

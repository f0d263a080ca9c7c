// Package logger provides structured logging for restproxy using zerolog.
//
// Loggers are component-scoped and carry structured fields describing the
// outbound call (interface, method, http_method, url, status, invocation_id).
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("dispatch")
//	log.Debug("request sent", logger.CallFields("users", "Get", "GET", url))
package logger

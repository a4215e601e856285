// Package httpserver wraps net/http.Server with environment-driven
// configuration and graceful shutdown on signals or context cancellation.
package httpserver

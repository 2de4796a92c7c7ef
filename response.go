package main

import (
	"encoding/json"
	"net/http"
)

// APIResponse sets the standard headers and writes JSON bodies
type APIResponse struct {
	w           http.ResponseWriter
	r           *http.Request
	cacheStatus string
}

// Respond creates a response helper for the request
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheStatus sets the X-Cache-Status header value (HIT when the parsed
// timeline was already in memory)
func (a *APIResponse) SetCacheStatus(status string) *APIResponse {
	a.cacheStatus = status
	return a
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.cacheStatus != "" {
		a.w.Header().Set("X-Cache-Status", a.cacheStatus)
	}
	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		a.w.Header().Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data with 200 OK
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Status writes headers, the given status code and data
func (a *APIResponse) Status(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes an {"error": message} body with the given status code
func (a *APIResponse) Error(statusCode int, message string) error {
	return a.Status(statusCode, map[string]interface{}{"error": message})
}

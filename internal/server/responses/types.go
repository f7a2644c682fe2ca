// Package responses defines API request and response types used by mdredirect HTTP handlers.
package responses

import "time"

// RewriteRequest is the JSON body accepted by POST /v1/rewrite.
type RewriteRequest struct {
	Content *string `json:"content"`
}

// RewriteResponse is returned for JSON rewrite requests.
type RewriteResponse struct {
	Content string `json:"content"`
	Changed bool   `json:"changed"`
	Links   int    `json:"links"`
	Texts   int    `json:"texts"`
	Skipped bool   `json:"skipped,omitempty"`
	// Fallback names the error category when the content was returned unchanged
	// because rewriting failed.
	Fallback string `json:"fallback,omitempty"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}

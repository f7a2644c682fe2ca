// Package handlers provides the HTTP handlers of the mdredirect API.
//
// RewriteHandlers rewrites markdown posted to /v1/rewrite. Failures inside the
// rewriter never surface as HTTP errors: the original content is returned and
// the failure category is reported alongside it. MonitoringHandlers serves
// /healthz.
package handlers

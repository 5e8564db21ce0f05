// Package handlers provides the HTTP handlers of the chat relay.
//
// # Chat
//
// ChatHandler serves POST /api/chat. A request moves through four steps:
//
//  1. Parse and validate the JSON body
//  2. Resolve provider, credential and endpoint
//  3. Assemble the message list, inlining attachments
//  4. Open the upstream call and relay its deltas as SSE frames
//
// Failures in steps 1-3 are written as a JSON ErrorResponse with an HTTP
// status. After step 4 begins the response is committed to 200 and every
// failure is reported as an error frame:
//
//	data: {"text":"Hel"}
//
//	data: {"text":"lo"}
//
//	data: {"error":"Stream error: ..."}
//
//	data: {"event":"done"}
//
// Every stream the client is still reading ends with exactly one done
// frame. When the client disconnects the upstream call is cancelled and
// nothing more is written.
//
// # Models
//
// ModelsHandler serves GET /api/models from the model catalog.
//
// # Health Checks
//
// Health check endpoints are designed for Kubernetes liveness/readiness probes:
//
//	livenessProbe:
//	  httpGet:
//	    path: /health
//	    port: 8080
//
//	readinessProbe:
//	  httpGet:
//	    path: /ready
//	    port: 8080
//
// /health/providers reports passive per-provider health derived from recent
// upstream calls.
package handlers

// Package http implements the HTTP handlers of the Arvaia Pulse dashboard API.
// Handlers are a thin layer between chi and the service package: they parse
// and validate the request, call a service and render the result.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → dataprocessing
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Error Handling
//
// Every error is rendered as RFC 7807 Problem Details through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Validation Failed",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard"
//	}
//
// # Caching
//
// Dashboard responses carry the dataset checksum as ETag and answer
// If-None-Match with 304, so polling clients only download data after a
// reload.
//
// # WebSocket Support
//
// GET /ws upgrades with Gorilla WebSocket and registers the connection with
// the hub, which pushes a "dataset:reloaded" event after every load.
package http

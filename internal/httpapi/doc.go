// Package httpapi serves a session manager to browser clients.
//
// Routes:
//
//	GET    /healthz                liveness
//	GET    /readyz                 store and sink backend checks
//	GET    /api/session            current session
//	POST   /api/session/login      {"email","password"}; 422 on invalid input
//	POST   /api/session/logout
//	GET    /api/session/stream     datastar SSE, "session" signal on every change
//	GET    /api/login-form         remembered email
//	PUT    /api/login-form
//	DELETE /api/login-form
//	GET    /api/dashboard          requires a hydrated, signed-in session
//	GET    /api/shipments          requires a hydrated, signed-in session
//	GET    /api/debug/storage      only when Config.EnableDebug is set
//	POST   /api/debug/telemetry    {"kind": "message"|"error"|"crash"}; debug only
//
// Handler panics are reported to the telemetry sink tagged errorBoundary=true
// and answered with 500.
//
// Responses are wrapped as {"data": ...} or {"error": {"code", "message"}}.
package httpapi

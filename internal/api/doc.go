// Package api exposes memos and review sessions over HTTP. Handlers decode
// and validate requests, call the services and map service errors to status
// codes without leaking internal details.
package api

// Package guard builds per-route HTTP handlers that run a fixed validation
// pipeline before business logic:
//
//	method → rate limit → authentication/role → body → callback
//
// Each stage short-circuits with a JSON envelope
// {"success":false,"message":...,"errors"?:{...}}. Errors and panics from the
// callback are converted to 500 responses and logged once.
package guard

// Package httpapi exposes the authentication service over JSON/HTTP.
//
// Sign-up, sign-in and federated sign-in routes are open and rate limited per
// client address; refresh and sign-out are open; /auth/me requires a bearer
// token or a service API key. Every failure is reported as
//
//	{"error":{"code":"unauthorized","message":"Unauthorized"}}
//
// with a generic message. Internal causes are logged, never returned.
package httpapi

// Package jwt issues and verifies the HS256 bearer tokens used across the API.
//
// A Service is bound to one signing key, issuer and audience. Issue fills the
// registered claims (iat, exp, iss, aud, jti) and signs them; Verify checks the
// signature, the algorithm, issuer, audience and expiry, and returns the claims.
// Clock skew configured with WithLeeway applies to expiry only.
//
// DeriveKey produces purpose-bound keys from a single secret so that tokens
// minted for one purpose (for example refresh) never verify as another.
//
// BearerToken extracts a token from an "Authorization: Bearer <token>" header
// with strict, case-sensitive parsing.
//
// # Usage
//
//	svc, err := jwt.New([]byte(secret),
//		jwt.WithIssuer("content-api"),
//		jwt.WithAudience("content-api"),
//		jwt.WithLeeway(10*time.Second),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	token, expiresAt, err := svc.Issue(jwt.Claims{
//		RegisteredClaims: gojwt.RegisteredClaims{Subject: accountID},
//		Email:            email,
//	}, 15*time.Minute)
//
//	claims, err := svc.Verify(token)
//	if errors.Is(err, jwt.ErrExpiredToken) {
//		// ask the client to refresh
//	}
//
// # Error Handling
//
// Verification failures are reported as ErrInvalidToken or ErrExpiredToken and
// can be compared using errors.Is. The underlying library error is wrapped as
// text only and is meant for logs, never for responses.
package jwt

// Package auth implements the account and token lifecycle of the content API:
// credential sign-up and sign-in, stateless refresh rotation, sign-out through an
// optional denylist, and federated sign-in with Google ID tokens.
//
// # Tokens
//
// TokenIssuer mints an access/refresh pair for an account. Both tokens are HS256
// JWTs sharing issuer and audience. The access token carries the email claim, the
// refresh token carries the subject only and is signed with a key derived from the
// configured secret, so neither token is accepted in place of the other.
//
//	issuer, err := auth.NewTokenIssuer(cfg)
//	if err != nil {
//		// errors.Is(err, auth.ErrMisconfigured) when no signing secret is set
//	}
//	pair, err := issuer.GenerateTokenPair(account)
//
// # Flows
//
// Service wires a Directory with the hasher, token issuer, identity verifier and
// denylist. Every flow reports one of a small set of outcomes:
//
//   - ErrInvalidCredentials for any failed password sign-in
//   - ErrUnauthorized for rejected refresh, sign-out and federated tokens
//   - ErrConflict when an account already exists
//   - ErrMisconfigured when the flow has no configuration
//
// Sign-in performs a bcrypt comparison on every path so that an unknown email,
// an account without password and a wrong password take the same time.
//
//	svc := auth.NewService(dir,
//		auth.WithTokenIssuer(issuer),
//		auth.WithIdentityVerifier(google),
//		auth.WithDenylist(auth.NewMemoryDenylist()),
//		auth.WithLogger(log),
//	)
//	pair, err := svc.SignIn(ctx, "ada@example.com", "correct horse")
//
// # Federated sign-in
//
// FederatedSignIn looks the account up by federated id, links an existing account
// when the provider vouches for the email, and otherwise creates one. A lost
// creation race is resolved by exactly one more lookup.
//
// # Storage
//
// MemoryDirectory and MemoryDenylist serve development and tests. Production
// deployments use the Postgres directory in pkg/accountstore and RedisDenylist.
package auth

// Package auth provides the core of a JWT authentication service: credential
// hashing, asymmetric access and refresh tokens, an identity store gateway,
// registration notifications and the flows that tie them together.
//
// Flows:
//   - Auther implements Register, Login, Refresh, Activate and Logout on top of
//     an IdentityStore and a TokenService. Every flow runs through an Attempt
//     that moves pending -> credential_valid|rejected -> issued. Rejections
//     always carry one of the package error sentinels, see ErrorKind.
//
// Tokens:
//   - TokenService signs with RS256 or EdDSA. Access and refresh tokens carry a
//     "type" claim and one kind is never accepted in place of the other. A
//     verify-only service is built by leaving TokenConfig.PrivateKey nil.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter invoked when an attempt
//     reaches a terminal state. Sinks run best-effort (errors are logged).
//
// Claims decoration:
//   - ClaimsDecorator is invoked before access tokens are signed. Decorators may
//     add extension claims while protected claims (sub, iss, exp, type, etc.)
//     remain immutable.
//
// Storage:
//   - IdentityRepository persists users and profiles with bun, on SQLite or
//     Postgres. See OpenDB and Migrate.
package auth

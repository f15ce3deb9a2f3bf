// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
// The package provides:
//  1. The remote API contract (Client, PostSource) covering the post feed,
//     login, registration, profile image upload and a liveness probe.
//  2. HTTPClient, the JSON-over-HTTP implementation. It signs requests with
//     the bearer token of the session it is given and maps transport and
//     status failures to sentinel errors.
//  3. BreakerSource, a circuit breaker in front of a PostSource that fails
//     fast after repeated remote failures.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) that opens
//     the SQLite database and applies embedded goose migrations.
//
// # Error Handling
//
// Callers match failures with errors.Is against ErrUnavailable,
// ErrUnauthorized, ErrUnexpectedStatus, ErrDecode and common.ErrorNotFound.
// The sync layer treats all of them as "remote failed".
package client

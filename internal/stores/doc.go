// Package stores holds the Redis-backed, short-lived records shared by every
// server instance: pending OTP login challenges and the token revocation list.
//
// Challenge records are versioned and binary encoded with a TTL. Attempt
// counting uses WATCH/MULTI with retry on contention. Revocation entries are
// keyed by a digest of the token so the blacklist never holds a usable bearer
// credential.
//
// This package does not generate codes or make authentication decisions and
// must not log secrets.
package stores

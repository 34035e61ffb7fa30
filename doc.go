// Package goAccount is a user-account and session engine: registration,
// password login with optional OTP step-up, third-party identity linking,
// role assignment and profile management, with JWT session tokens and a
// token blacklist.
//
// [Engine] methods are safe to call from multiple goroutines after
// [Builder.Build]. Every error they return is an [*Error] carrying a
// [Category]; transports map categories to status codes with [CategoryOf].
//
// # Architecture boundaries
//
// goAccount is the public surface: [Engine], [Builder], [Config] and value
// types. Accounts live behind [UserStore] (see store/mongostore and
// store/memstore); OTP challenges, login rate limits and the default
// blacklist live in Redis under internal/.
//
// # What this package must NOT do
//
//   - Return password hashes, OTP secrets or codes to callers.
//   - Log passwords, tokens or codes.
//   - Import transport packages (httpapi, middleware) that import it.
package goAccount

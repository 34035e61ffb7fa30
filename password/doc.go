// Package password hashes and verifies account passwords.
//
// New digests use Argon2id in PHC string format by default:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt ($2a$, $2b$, $2y$) is supported both as the configured algorithm and
// for digests imported from older deployments. [Hasher.Verify] dispatches on
// the digest prefix; [Hasher.NeedsRehash] flags digests that should be
// replaced after the next successful login.
//
// Password policy (length, character classes) is enforced by the engine, not
// here.
package password

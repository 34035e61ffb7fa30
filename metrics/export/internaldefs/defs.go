package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goAccount.MetricRegisterSuccess, Name: "goaccount_register_success_total", Help: "Accounts created through registration."},
	{ID: goAccount.MetricRegisterDuplicate, Name: "goaccount_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Logins that issued a token."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: goAccount.MetricLoginRateLimited, Name: "goaccount_login_rate_limited_total", Help: "Logins rejected by the per-address gate."},
	{ID: goAccount.MetricOTPSent, Name: "goaccount_otp_sent_total", Help: "Login codes delivered."},
	{ID: goAccount.MetricOTPSuccess, Name: "goaccount_otp_success_total", Help: "Login codes accepted."},
	{ID: goAccount.MetricOTPFailure, Name: "goaccount_otp_failure_total", Help: "Login codes rejected."},
	{ID: goAccount.MetricOTPAttemptsExceeded, Name: "goaccount_otp_attempts_exceeded_total", Help: "Login challenges destroyed after too many wrong codes."},
	{ID: goAccount.MetricTokenIssued, Name: "goaccount_token_issued_total", Help: "Session tokens issued."},
	{ID: goAccount.MetricTokenRejected, Name: "goaccount_token_rejected_total", Help: "Session tokens rejected."},
	{ID: goAccount.MetricTokenRevoked, Name: "goaccount_token_revoked_total", Help: "Session tokens revoked."},
	{ID: goAccount.MetricRoleAssigned, Name: "goaccount_role_assigned_total", Help: "Role changes applied by admins."},
	{ID: goAccount.MetricAuthzDenied, Name: "goaccount_authz_denied_total", Help: "Requests denied by a role check."},
	{ID: goAccount.MetricUserDeleted, Name: "goaccount_user_deleted_total", Help: "Accounts deleted."},
	{ID: goAccount.MetricIdentityLinked, Name: "goaccount_identity_linked_total", Help: "Federated logins to an existing account."},
	{ID: goAccount.MetricIdentityCreated, Name: "goaccount_identity_created_total", Help: "Accounts created by a federated first login."},
	{ID: goAccount.MetricIdentityRaceRecovered, Name: "goaccount_identity_race_recovered_total", Help: "Concurrent first logins resolved to the winning account."},
	{ID: goAccount.MetricPasswordRehashed, Name: "goaccount_password_rehashed_total", Help: "Password digests upgraded on login."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricValidateLatency, Name: "goaccount_validate_latency_seconds", Help: "Token validation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds; the last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// model buckets as separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

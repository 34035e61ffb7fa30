package flows

// Deps groups the dependency sets the engine builds once in Build. Account
// flows take per-call dependencies instead, since they close over the record
// being created.
type Deps struct {
	Validate ValidateDeps
	Revoke   RevokeDeps
	OTP      OTPVerifyDeps
}

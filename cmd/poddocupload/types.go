package main

// RecoveryResult records which sub-steps of the failure branch succeeded.
// Partial recovery failures are logged per step instead of being swallowed
// as one opaque error.
type RecoveryResult struct {
	StatusRecorded bool
	AuditLogged    bool
	Requeued       bool
	Alerted        bool
}

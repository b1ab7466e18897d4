package checkout

// State is where a checkout stands. OrderRecorded is only reached from Succeeded.
type State string

const (
	StateIdle            State = "idle"
	StateIntentRequested State = "intent_requested"
	StateIntentReady     State = "intent_ready"
	StateConfirming      State = "confirming"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
	StateOrderRecorded   State = "order_recorded"
)

// Paid reports whether money has moved, which is when failures stop being safe to abandon.
func (s State) Paid() bool {
	return s == StateSucceeded || s == StateOrderRecorded
}

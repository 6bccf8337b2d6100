package workflow

// NewClaimMachine builds the claim lifecycle state machine positioned at the
// given state. Pending moves to approved (final approval or auto-approval on
// submit) or rejected; approved moves to paid. Rejected and paid are terminal
// and carry no configuration, so any trigger fired from them fails.
func NewClaimMachine(current State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerAutoApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateApproved).
		Permit(TriggerPay, StatePaid)

	return builder.Build(current)
}

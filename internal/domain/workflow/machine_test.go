package workflow

import (
	"errors"
	"testing"

	"github.com/campushq/claimflow/internal/domain/entity"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateApproved, false},
		{StateRejected, true},
		{StatePaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"paid", StatePaid, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestClaimMachine_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		from      State
		trigger   Trigger
		wantState State
		wantErr   bool
	}{
		{"approve from pending", StatePending, TriggerApprove, StateApproved, false},
		{"auto approve from pending", StatePending, TriggerAutoApprove, StateApproved, false},
		{"reject from pending", StatePending, TriggerReject, StateRejected, false},
		{"pay from approved", StateApproved, TriggerPay, StatePaid, false},
		{"pay from pending", StatePending, TriggerPay, StatePending, true},
		{"approve from approved", StateApproved, TriggerApprove, StateApproved, true},
		{"approve from rejected", StateRejected, TriggerApprove, StateRejected, true},
		{"reject from paid", StatePaid, TriggerReject, StatePaid, true},
		{"pay from paid", StatePaid, TriggerPay, StatePaid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewClaimMachine(tt.from)

			err := machine.Fire(tt.trigger)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Fire(%s) from %s should fail", tt.trigger, tt.from)
				}
				if !errors.Is(err, entity.ErrInvalidTransition) {
					t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
				}
			} else if err != nil {
				t.Fatalf("Fire(%s) from %s failed: %v", tt.trigger, tt.from, err)
			}

			if got := machine.State(); got != tt.wantState {
				t.Errorf("State() = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestClaimMachine_CanFire(t *testing.T) {
	machine := NewClaimMachine(StatePending)

	if !machine.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) should be true from pending")
	}
	if machine.CanFire(TriggerPay) {
		t.Error("CanFire(PAY) should be false from pending")
	}
}

func TestClaimMachine_TerminalStatesHaveNoTriggers(t *testing.T) {
	for _, state := range []State{StateRejected, StatePaid} {
		machine := NewClaimMachine(state)
		if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
			t.Errorf("PermittedTriggers() from %s = %v, want none", state, triggers)
		}
	}
}

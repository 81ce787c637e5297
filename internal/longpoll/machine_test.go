package longpoll

import (
	"testing"

	"go.uber.org/zap"
)

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine(zap.NewNop())
	if m.Phase() != PhaseDisconnected {
		t.Fatalf("initial phase = %s", m.Phase())
	}

	steps := []Phase{PhaseServerAcquired, PhasePolling, PhaseGapRecovery, PhasePolling, PhaseDisconnected}
	for _, next := range steps {
		if err := m.Set(next); err != nil {
			t.Fatalf("Set(%s): %v", next, err)
		}
	}
}

func TestMachineRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		from Phase
		to   Phase
	}{
		{PhaseDisconnected, PhasePolling},
		{PhaseDisconnected, PhaseGapRecovery},
		{PhaseServerAcquired, PhaseGapRecovery},
		{PhaseGapRecovery, PhaseServerAcquired},
	}
	for _, tc := range cases {
		m := &Machine{phase: tc.from, log: zap.NewNop()}
		if err := m.Set(tc.to); err == nil {
			t.Errorf("Set(%s -> %s): want error", tc.from, tc.to)
		}
	}
}

func TestMachinePollingSelfLoop(t *testing.T) {
	m := &Machine{phase: PhasePolling, log: zap.NewNop()}
	if err := m.Set(PhasePolling); err != nil {
		t.Errorf("Polling -> Polling should be allowed: %v", err)
	}
}

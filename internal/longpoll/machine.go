package longpoll

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Phase is the listener's connection state.
type Phase string

const (
	PhaseDisconnected   Phase = "disconnected"
	PhaseServerAcquired Phase = "server_acquired"
	PhasePolling        Phase = "polling"
	PhaseGapRecovery    Phase = "gap_recovery"
)

// validTransitions is the allowed phase graph. Anything not listed is a
// programming error.
var validTransitions = map[Phase][]Phase{
	PhaseDisconnected:   {PhaseServerAcquired},
	PhaseServerAcquired: {PhasePolling, PhaseDisconnected},
	PhasePolling:        {PhasePolling, PhaseGapRecovery, PhaseDisconnected},
	PhaseGapRecovery:    {PhasePolling, PhaseDisconnected},
}

// Machine guards phase transitions. Safe for concurrent use.
type Machine struct {
	mu    sync.RWMutex
	phase Phase
	log   *zap.Logger
}

func NewMachine(log *zap.Logger) *Machine {
	return &Machine{phase: PhaseDisconnected, log: log.Named("lp-state")}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Set moves to next, rejecting transitions outside the phase graph.
func (m *Machine) Set(next Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range validTransitions[m.phase] {
		if allowed == next {
			m.log.Debug("phase transition",
				zap.String("from", string(m.phase)),
				zap.String("to", string(next)))
			m.phase = next
			return nil
		}
	}
	return fmt.Errorf("invalid phase transition %s -> %s", m.phase, next)
}

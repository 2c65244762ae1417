package motion

import (
	"context"
)

// MotionSensor is the polling surface shared by QwiicPIR and MockMotionSensor.
type MotionSensor interface {
	Status(ctx context.Context) (Status, error)
	ClearEventBits(ctx context.Context) error
}

var _ MotionSensor = &QwiicPIR{}
var _ MotionSensor = &MockMotionSensor{}

// StatusBehaviorFunc produces the status returned by the mock on every poll.
type StatusBehaviorFunc func(ctx context.Context) (Status, error)

// MockMotionSensor is a hardware-free MotionSensor. Latched flags reported by
// the behavior function stay set until ClearEventBits is called, the way the
// device latches them.
//
// Example usage:
//
//	// Motion every other poll
//	n := 0
//	sensor := NewMockMotionSensor(func(ctx context.Context) (Status, error) {
//		n++
//		return Status{RawReading: n%2 == 0}, nil
//	})
type MockMotionSensor struct {
	behavior StatusBehaviorFunc
	latched  Status
	last     bool
	started  bool
}

func NewMockMotionSensor(behavior StatusBehaviorFunc) *MockMotionSensor {
	return &MockMotionSensor{
		behavior: behavior,
	}
}

// Status calls the behavior function and latches raw reading transitions.
func (m *MockMotionSensor) Status(ctx context.Context) (Status, error) {
	st, err := m.behavior(ctx)
	if err != nil {
		return Status{}, err
	}
	if m.started && st.RawReading != m.last {
		m.latched.EventAvailable = true
		if st.RawReading {
			m.latched.ObjectDetected = true
		} else {
			m.latched.ObjectRemoved = true
		}
	}
	m.started = true
	m.last = st.RawReading
	m.latched.EventAvailable = m.latched.EventAvailable || st.EventAvailable
	m.latched.ObjectDetected = m.latched.ObjectDetected || st.ObjectDetected
	m.latched.ObjectRemoved = m.latched.ObjectRemoved || st.ObjectRemoved
	return Status{
		RawReading:     st.RawReading,
		EventAvailable: m.latched.EventAvailable,
		ObjectDetected: m.latched.ObjectDetected,
		ObjectRemoved:  m.latched.ObjectRemoved,
	}, nil
}

func (m *MockMotionSensor) ClearEventBits(ctx context.Context) error {
	m.latched = Status{}
	return nil
}

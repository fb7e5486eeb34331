package pwm

// MaxDuty is the largest duty-cycle value accepted on the wire (8-bit,
// matching the analogWrite convention of the boards that publish to us).
const MaxDuty = 255

// Driver drives one output pin. SetDuty takes 0..MaxDuty.
//
// Close should be best-effort and leave the pin in a safe (off) state.
type Driver interface {
	SetDuty(v int) error
	Close() error
}

// Recorder is a Driver that remembers every duty value it was given.
// Used in tests.
type Recorder struct {
	Duties []int
	Closed bool
}

func (r *Recorder) SetDuty(v int) error {
	r.Duties = append(r.Duties, v)
	return nil
}

func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}

// Last returns the most recent duty value, or -1 if none was set.
func (r *Recorder) Last() int {
	if len(r.Duties) == 0 {
		return -1
	}
	return r.Duties[len(r.Duties)-1]
}

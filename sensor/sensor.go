package sensor

// Sampler reads analog input channels. Sample never fails: a channel that
// can't be read reports 0, matching the "value not yet acquired" convention
// on the wire. Values are always within 0..MaxSample.
type Sampler interface {
	Sample(channel int) int
	Close() error
}

// MaxSample is the full-scale reading of a 10-bit ADC.
const MaxSample = 1023

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxSample {
		return MaxSample
	}
	return v
}

// Static is a Sampler returning fixed per-channel values. Used in tests and
// when running with -io=fake.
type Static struct {
	Values []int
}

func (s *Static) Sample(channel int) int {
	if channel < 0 || channel >= len(s.Values) {
		return 0
	}
	return clamp(s.Values[channel])
}

func (s *Static) Close() error { return nil }

// Package message defines the two document shapes exchanged over the channel:
// the outbound status message we author, and the inbound reply items whose
// shape is untrusted and tolerated field by field.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pinbus/pinbus/sensor"
)

// ErrMalformed marks a reply payload that could not be decoded at all
// (as opposed to one that merely lacks expected fields).
var ErrMalformed = errors.New("malformed reply payload")

// ErrOversized marks a reply payload exceeding the configured bound.
var ErrOversized = errors.New("oversized reply payload")

type Sender struct {
	Name        string `json:"name"`
	MACLastByte int    `json:"mac_last_byte"`
}

// Outbound is the status message we publish. It always has exactly these two
// keys; neither is ever omitted.
type Outbound struct {
	Sender Sender `json:"sender"`
	Analog []int  `json:"analog"`
}

// Build samples each of the given analog channels once, in order, and wraps
// the readings with the sender identity. It cannot fail: Sample always
// returns an in-range integer.
func Build(name string, macLastByte int, channels []int, s sensor.Sampler) *Outbound {
	analog := make([]int, len(channels))
	for i, ch := range channels {
		analog[i] = s.Sample(ch)
	}
	return &Outbound{
		Sender: Sender{Name: name, MACLastByte: macLastByte},
		Analog: analog,
	}
}

func (m *Outbound) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func pickyUnmarshal(data []byte, v any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	err := d.Decode(v)
	if err != nil {
		return err
	}
	// The data should be one value and nothing more
	if t, err := d.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after decode: %T / %v, err %w", t, t, err)
	}
	return nil
}

// Item is one inbound reply message. Fields are kept raw and decoded lazily
// so that a wrong-typed field spoils only itself, not the whole item.
type Item struct {
	PWM    json.RawMessage `json:"pwm"`
	Sender json.RawMessage `json:"sender"`
	Analog json.RawMessage `json:"analog"`
}

// SenderInfo mirrors the outbound sender object, with every field optional.
type SenderInfo struct {
	Name        *string `json:"name"`
	MACLastByte *int    `json:"mac_last_byte"`
}

// ParseReply decodes an inbound payload: a single JSON array of message
// objects, nothing before or after it. Payloads longer than maxBytes are
// rejected outright rather than truncated. Items that aren't objects decode
// as empty (all fields absent); that's not an error.
func ParseReply(payload []byte, maxBytes int) ([]Item, error) {
	if maxBytes > 0 && len(payload) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, bound %d", ErrOversized, len(payload), maxBytes)
	}
	var raw []json.RawMessage
	if err := pickyUnmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	items := make([]Item, len(raw))
	for i, r := range raw {
		// Non-object items are tolerated as empty.
		_ = json.Unmarshal(r, &items[i])
	}
	return items, nil
}

// HasPWM reports whether the item carries a pwm command object.
func (it *Item) HasPWM() bool {
	if len(it.PWM) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	return json.Unmarshal(it.PWM, &m) == nil && m != nil
}

// Duty returns the commanded duty value for the given pin, if the pwm object
// has an entry under the pin's decimal name and it decodes as an integer.
// Absence of either is the normal "leave unchanged" case.
func (it *Item) Duty(pin int) (int, bool) {
	if len(it.PWM) == 0 {
		return 0, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(it.PWM, &m); err != nil {
		return 0, false
	}
	raw, ok := m[strconv.Itoa(pin)]
	if !ok {
		return 0, false
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// SenderInfo returns the item's sender object, if present and object-shaped.
func (it *Item) SenderInfo() (*SenderInfo, bool) {
	if len(it.Sender) == 0 {
		return nil, false
	}
	var s SenderInfo
	if err := json.Unmarshal(it.Sender, &s); err != nil {
		return nil, false
	}
	return &s, true
}

// AnalogAt returns the analog sample at index i, if the item carries an
// analog array long enough and the element is an integer.
func (it *Item) AnalogAt(i int) (int, bool) {
	if len(it.Analog) == 0 || i < 0 {
		return 0, false
	}
	var a []json.RawMessage
	if err := json.Unmarshal(it.Analog, &a); err != nil {
		return 0, false
	}
	if i >= len(a) {
		return 0, false
	}
	var v int
	if err := json.Unmarshal(a[i], &v); err != nil {
		return 0, false
	}
	return v, true
}

package bridge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/message"
	"github.com/pinbus/pinbus/pwm"
)

func parseItems(t *testing.T, payload string) []message.Item {
	t.Helper()
	items, err := message.ParseReply([]byte(payload), 4096)
	if err != nil {
		t.Fatalf("parsing '%s': %v", payload, err)
	}
	return items
}

func newTestApplier(buf *bytes.Buffer) (*Applier, map[int]*pwm.Recorder) {
	recorders := map[int]*pwm.Recorder{
		8: {},
		9: {},
	}
	drivers := map[int]pwm.Driver{
		8: recorders[8],
		9: recorders[9],
	}
	l := logs.NewWithWriter(buf)
	return NewApplier(l, []int{8, 9}, drivers, NewStatus()), recorders
}

func TestApplySingle(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	items := parseItems(t, `[{"pwm":{"8":200}}]`)
	if got := a.Apply(&items[0]); got != 1 {
		t.Errorf("Apply() = %d pins written, want 1", got)
	}
	if rec[8].Last() != 200 {
		t.Errorf("pin 8 duty = %d, want 200", rec[8].Last())
	}
	if len(rec[9].Duties) != 0 {
		t.Errorf("pin 9 written %v, want untouched", rec[9].Duties)
	}
}

func TestApplyBothPins(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	items := parseItems(t, `[{"pwm":{"8":0,"9":255}}]`)
	if got := a.Apply(&items[0]); got != 2 {
		t.Errorf("Apply() = %d pins written, want 2", got)
	}
	if rec[8].Last() != 0 || rec[9].Last() != 255 {
		t.Errorf("duties = %d/%d, want 0/255", rec[8].Last(), rec[9].Last())
	}
}

func TestApplyNoPWM(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	items := parseItems(t, `[{"sender":{"name":"x"}}]`)
	if got := a.Apply(&items[0]); got != 0 {
		t.Errorf("Apply() = %d pins written, want 0", got)
	}
	if len(rec[8].Duties) != 0 || len(rec[9].Duties) != 0 {
		t.Errorf("pins written %v/%v, want none", rec[8].Duties, rec[9].Duties)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("got %d diagnostic lines, want exactly 1:\n%s", got, buf.String())
	}
}

func TestApplySkipsBadEntries(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	// A mistyped entry spoils only its own pin.
	items := parseItems(t, `[{"pwm":{"8":"high","9":128}}]`)
	if got := a.Apply(&items[0]); got != 1 {
		t.Errorf("Apply() = %d pins written, want 1", got)
	}
	if len(rec[8].Duties) != 0 {
		t.Errorf("pin 8 written %v, want untouched", rec[8].Duties)
	}
	if rec[9].Last() != 128 {
		t.Errorf("pin 9 duty = %d, want 128", rec[9].Last())
	}
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	items := parseItems(t, `[{"pwm":{"8":300,"9":-1}}]`)
	if got := a.Apply(&items[0]); got != 0 {
		t.Errorf("Apply() = %d pins written, want 0", got)
	}
	if len(rec[8].Duties) != 0 || len(rec[9].Duties) != 0 {
		t.Errorf("pins written %v/%v, want none", rec[8].Duties, rec[9].Duties)
	}
	if !strings.Contains(buf.String(), "out of range") {
		t.Errorf("expected out of range diagnostics, got:\n%s", buf.String())
	}
}

func TestApplierClose(t *testing.T) {
	var buf bytes.Buffer
	a, rec := newTestApplier(&buf)
	a.Close()
	if !rec[8].Closed || !rec[9].Closed {
		t.Errorf("drivers closed = %v/%v, want both", rec[8].Closed, rec[9].Closed)
	}
}

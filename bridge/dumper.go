package bridge

import (
	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/message"
)

// Dumper walks a parsed reply, applying pwm commands per item and logging the
// sender identity plus one analog sample for whoever is watching the log.
//
// Items with a sender but incomplete data are skipped individually; the dump
// always runs to the end and reports a summary. An item without a sender is
// not incomplete, just someone else's command message.
type Dumper struct {
	log     *logs.Loggers
	applier *Applier
}

type DumpSummary struct {
	Items      int  `json:"items"`
	Applied    int  `json:"applied"`
	Incomplete int  `json:"incomplete"`
	SenderSeen bool `json:"sender_seen"`
}

func NewDumper(l *logs.Loggers, applier *Applier) *Dumper {
	return &Dumper{log: l, applier: applier}
}

func (d *Dumper) Dump(items []message.Item) DumpSummary {
	sum := DumpSummary{Items: len(items)}
	for i := range items {
		it := &items[i]
		n := i + 1 // 1-indexed for display
		d.log.Info.Printf("message %d of %d:", n, len(items))
		sum.Applied += d.applier.Apply(it)

		s, ok := it.SenderInfo()
		if !ok {
			continue
		}
		sum.SenderSeen = true
		if s.MACLastByte == nil {
			d.log.Warn.Printf("message %d: sender mac not acquired, skipping", n)
			sum.Incomplete++
			continue
		}
		a, ok := it.AnalogAt(2)
		if !ok {
			d.log.Warn.Printf("message %d: analog not acquired, skipping", n)
			sum.Incomplete++
			continue
		}
		d.log.Info.Printf("message %d: sender mac last byte %d, analog[2] %d", n, *s.MACLastByte, a)
	}
	if !sum.SenderSeen {
		d.log.Warn.Printf("sender not acquired in any of %d messages", sum.Items)
	}
	return sum
}

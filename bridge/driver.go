package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pinbus/pinbus/config"
	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/message"
	"github.com/pinbus/pinbus/sensor"
)

// ErrMalformedReply is returned by Run when a reply payload can't be decoded
// at all. That's fail-stop: we'd rather halt than act on a channel speaking a
// shape we don't understand.
var ErrMalformedReply = errors.New("bridge: malformed reply, stopping")

// Publisher is the one pub/sub primitive the driver needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// StatusTopic and CommandTopic derive the two directions from the channel
// name both sides agree on.
func StatusTopic(channel string) string  { return channel + "/status" }
func CommandTopic(channel string) string { return channel + "/commands" }

// Driver runs the publish/receive/apply loop. One iteration per tick: build
// and publish a status message, wait for one command reply, parse it, dump
// it. Transport failures skip to the next tick; there is no iteration state
// to recover beyond what's already on the pins.
type Driver struct {
	cfg     config.Config
	log     *logs.Loggers
	pub     Publisher
	inbox   <-chan []byte
	sampler sensor.Sampler
	dumper  *Dumper
	status  *Status
}

func NewDriver(cfg config.Config, l *logs.Loggers, pub Publisher, inbox <-chan []byte, s sensor.Sampler, dumper *Dumper, st *Status) *Driver {
	return &Driver{
		cfg:     cfg,
		log:     l,
		pub:     pub,
		inbox:   inbox,
		sampler: s,
		dumper:  dumper,
		status:  st,
	}
}

// Run iterates until ctx is cancelled or a reply is malformed.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PublishInterval)
	defer ticker.Stop()
	for {
		if err := d.iterate(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Driver) iterate(ctx context.Context) error {
	// Publish phase
	out := message.Build(d.cfg.Sender.Name, d.cfg.Sender.MACLastByte, d.cfg.AnalogChannels, d.sampler)
	payload, err := out.Marshal()
	if err != nil {
		// Can't happen for the fixed shape; if it somehow does, no
		// iteration will ever succeed.
		return fmt.Errorf("marshal outbound: %w", err)
	}
	if err := d.pub.Publish(StatusTopic(d.cfg.Channel), payload); err != nil {
		d.log.Warn.Printf("publish failed, retrying next tick: %v", err)
		return nil
	}
	d.status.SetOutbound(out)

	// Subscribe phase
	var reply []byte
	select {
	case <-ctx.Done():
		return ctx.Err()
	case reply = <-d.inbox:
	case <-time.After(d.cfg.ReplyDeadline):
		d.log.Warn.Printf("no reply within %v, retrying next tick", d.cfg.ReplyDeadline)
		return nil
	}

	items, err := message.ParseReply(reply, d.cfg.MaxPayloadBytes)
	if err != nil {
		d.log.Error.Printf("reply unusable: %v", err)
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	sum := d.dumper.Dump(items)
	d.status.NoteReply(sum)
	d.log.Info.Printf("reply processed: %d messages, %d pins written, %d incomplete", sum.Items, sum.Applied, sum.Incomplete)
	return nil
}

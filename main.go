package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/pinbus/pinbus/bridge"
	"github.com/pinbus/pinbus/config"
	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/mqtt"
	"github.com/pinbus/pinbus/pwm"
	"github.com/pinbus/pinbus/sensor"
	"github.com/pinbus/pinbus/ui"
)

const (
	// Commands can arrive in small sprees while an iteration is mid-dump.
	// This should be enough buffer to avoid dropping in those situations.
	INBOX_BUFFER = 5
)

var (
	log      *logs.Loggers
	mq       *mqtt.MQTT
	inbox    chan []byte
	cmdTopic string
)

func connectHandler(c paho.Client) {
	log.Info.Printf("Broker connected")
	err := mq.Subscribe(cmdTopic, messageHandler)
	if err != nil {
		log.Critical.Fatalf("Post-connect subscribe failed: %v", err)
	}
}

func messageHandler(c paho.Client, m paho.Message) {
	select {
	case inbox <- m.Payload():
	default:
		log.Warn.Printf("Inbox full, dropping %d byte message on '%s'", len(m.Payload()), m.Topic())
	}
}

func openSampler(backend string, iioDevice int) (sensor.Sampler, error) {
	switch backend {
	case "iio":
		return sensor.OpenIIO(iioDevice)
	case "fake":
		return &sensor.Static{}, nil
	}
	return nil, fmt.Errorf("unknown sensor backend '%s'", backend)
}

func openDrivers(backend string, chip int, pins []int) (map[int]pwm.Driver, error) {
	drivers := make(map[int]pwm.Driver, len(pins))
	for _, pin := range pins {
		var (
			d   pwm.Driver
			err error
		)
		switch backend {
		case "gpio":
			d, err = pwm.OpenGPIO(pin)
		case "sysfs":
			// With sysfs, the configured pin number names the
			// channel on the pwm chip.
			d, err = pwm.OpenSysfsPWM(chip, pin)
		case "fake":
			d = &pwm.Recorder{}
		default:
			err = fmt.Errorf("unknown pwm backend '%s'", backend)
		}
		if err != nil {
			for _, open := range drivers {
				open.Close()
			}
			return nil, fmt.Errorf("pin %d: %w", pin, err)
		}
		drivers[pin] = d
	}
	return drivers, nil
}

func main() {
	mqtt.InitFlags()
	configPath := flag.String("config", "pinbus.yaml", "Path to the device profile")
	logName := flag.String("logfile", "pinbus.log", "Name of the log file to use")
	httpAddr := flag.String("http", ":3000", "Address for the status UI. Empty disables it.")
	pwmBackend := flag.String("pwm_backend", "gpio", "Pin output backend: gpio, sysfs or fake")
	pwmChip := flag.Int("pwm_chip", 0, "sysfs pwm chip number (sysfs backend only)")
	sensorBackend := flag.String("sensor_backend", "iio", "Analog input backend: iio or fake")
	iioDevice := flag.Int("iio_device", 0, "IIO device number (iio backend only)")

	flag.Parse()

	log = logs.New(*logName)
	log.Info.Printf("Starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Critical.Fatalf("Config: %v", err)
	}
	cmdTopic = bridge.CommandTopic(cfg.Channel)

	sampler, err := openSampler(*sensorBackend, *iioDevice)
	if err != nil {
		log.Critical.Fatalf("Unable to open sampler: %v", err)
	}
	defer sampler.Close()

	drivers, err := openDrivers(*pwmBackend, *pwmChip, cfg.Pins)
	if err != nil {
		log.Critical.Fatalf("Unable to open pin drivers: %v", err)
	}

	st := bridge.NewStatus()
	applier := bridge.NewApplier(log, cfg.Pins, drivers, st)
	defer applier.Close()
	dumper := bridge.NewDumper(log, applier)

	inbox = make(chan []byte, INBOX_BUFFER)
	mq, err = mqtt.New(log, connectHandler)
	if err != nil {
		log.Critical.Fatalf("Unable to initialize MQTT: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = mq.Connect(ctx); err != nil {
		log.Critical.Fatalf("Unable to connect MQTT: %v", err)
	}
	defer mq.Disconnect()

	if *httpAddr != "" {
		ui.Init(log, st, *httpAddr)
	}

	drv := bridge.NewDriver(cfg, log, mq, inbox, sampler, dumper, st)
	err = drv.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Critical.Fatalf("Bridge stopped: %v", err)
	}
	log.Info.Printf("Shutting down")
}

package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pinbus/pinbus/logs"
)

type MQTT struct {
	c   paho.Client
	log *logs.Loggers
}

type brokerFlags struct {
	url         string
	username    string
	password    string
	clientID    string
	caCert      string
	keepAlive   time.Duration
	pingTimeout time.Duration
}

var bf brokerFlags

func InitFlags() {
	flag.StringVar(&bf.url, "broker_url", "tcp://localhost:1883", "MQTT broker's URL, including protocol and port")
	flag.StringVar(&bf.username, "broker_username", "", "Username for MQTT broker")
	flag.StringVar(&bf.password, "broker_password", "", "Password for MQTT broker")
	flag.StringVar(&bf.clientID, "broker_client_id", "", "Client ID for MQTT broker. Default is pinbus- plus a random suffix.")
	flag.StringVar(&bf.caCert, "broker_ca_cert", "", "Filename of a custom CA cert to trust from the broker")
	flag.DurationVar(&bf.keepAlive, "broker_keep_alive", 60*time.Second, "Interval for sending keep-alive packets to the MQTT broker")
	flag.DurationVar(&bf.pingTimeout, "broker_ping_timeout", 130*time.Second, "Timeout after which the connection to the MQTT broker is regarded as dead")
}

func addCACert(opts *paho.ClientOptions, caCert string) (*paho.ClientOptions, error) {
	// Get the SystemCertPool, continue with an empty pool on error
	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}

	certs, err := os.ReadFile(caCert)
	if err != nil {
		return nil, fmt.Errorf("failed to append %q to root CAs: %w", caCert, err)
	}

	// Append our cert to the system pool
	if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
		paho.WARN.Println("No certs appended, using system certs only")
	}

	config := &tls.Config{
		RootCAs: rootCAs,
	}
	return opts.SetTLSConfig(config), nil
}

func New(l *logs.Loggers, connectHandler paho.OnConnectHandler) (*MQTT, error) {
	paho.DEBUG = l.Info
	paho.WARN = l.Warn
	paho.ERROR = l.Error
	paho.CRITICAL = l.Critical

	clientID := bf.clientID
	if clientID == "" {
		clientID = "pinbus-" + uuid.NewString()[:8]
	}

	opts := paho.NewClientOptions().
		AddBroker(bf.url).
		SetClientID(clientID).
		SetKeepAlive(bf.keepAlive).
		SetPingTimeout(bf.pingTimeout).
		SetOnConnectHandler(connectHandler)
	if bf.username != "" {
		opts = opts.SetUsername(bf.username)
	}
	if bf.password != "" {
		opts = opts.SetPassword(bf.password)
	}
	if bf.caCert != "" {
		var err error
		opts, err = addCACert(opts, bf.caCert)
		if err != nil {
			return nil, err
		}
	}

	c := paho.NewClient(opts)

	m := MQTT{c, l}
	return &m, nil
}

// Connect keeps trying with exponential backoff until the broker accepts us
// or ctx is cancelled.
func (m *MQTT) Connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	operation := func() error {
		if token := m.c.Connect(); token.Wait() && token.Error() != nil {
			m.log.Warn.Printf("Broker connect failed, will retry: %v", token.Error())
			return token.Error()
		}
		return nil
	}
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.c.Publish(topic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed for topic '%s': %w", topic, err)
	}
	return nil
}

func (m *MQTT) Subscribe(topic string, handler paho.MessageHandler) error {
	token := m.c.Subscribe(topic, 1, handler)
	token.Wait()
	err := token.Error()
	if err != nil {
		return fmt.Errorf("subscribe failed for topic '%s': %w", topic, err)
	}
	m.log.Info.Printf("Subscribed to '%s'", topic)
	return nil
}

func (m *MQTT) Disconnect() {
	m.c.Disconnect(250)
	m.log.Info.Printf("Disconnected from broker")
}

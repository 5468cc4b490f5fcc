// Package mqtt publishes fleet coordination events to the facility
// broker. Publishing is best-effort observability for external
// listeners; coordination itself never depends on a delivery.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/infra/logger"
)

// Topics carrying fleet events.
const (
	TopicTaskNew      = "tasks/new"
	TopicTaskAssigned = "tasks/assigned"
	TopicTaskComplete = "tasks/complete"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled    bool            `json:"enabled"`
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	TLSConfig  *tls.Config     `json:"-"`
}

// Publisher emits fleet task events.
type Publisher interface {
	PublishTaskNew(task model.Task) error
	PublishTaskAssigned(taskID, robotID string, dest model.Location, distance float64) error
	PublishTaskComplete(taskID, robotID string, dest model.Location) error
	Close()
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	qos        map[string]byte
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p := &PahoPublisher{
		cli:        c,
		qos:        cfg.QoS,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// PublishTaskNew announces a freshly created task.
func (p *PahoPublisher) PublishTaskNew(task model.Task) error {
	return p.publish(TopicTaskNew, struct {
		TaskID      string `json:"task_id"`
		Destination string `json:"destination"`
		Priority    string `json:"priority"`
		Timestamp   int64  `json:"timestamp"`
	}{task.ID, string(task.Destination), string(task.Priority), time.Now().UnixMilli()})
}

// PublishTaskAssigned announces an auction outcome.
func (p *PahoPublisher) PublishTaskAssigned(taskID, robotID string, dest model.Location, distance float64) error {
	return p.publish(TopicTaskAssigned, struct {
		TaskID      string  `json:"task_id"`
		RobotID     string  `json:"robot_id"`
		Destination string  `json:"destination"`
		Distance    float64 `json:"distance"`
		Timestamp   int64   `json:"timestamp"`
	}{taskID, robotID, string(dest), distance, time.Now().UnixMilli()})
}

// PublishTaskComplete announces a completed delivery.
func (p *PahoPublisher) PublishTaskComplete(taskID, robotID string, dest model.Location) error {
	return p.publish(TopicTaskComplete, struct {
		TaskID      string `json:"task_id"`
		RobotID     string `json:"robot_id"`
		Destination string `json:"destination"`
		Timestamp   int64  `json:"timestamp"`
	}{taskID, robotID, string(dest), time.Now().UnixMilli()})
}

func (p *PahoPublisher) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	qos := byte(0)
	if q, ok := p.qos[topic]; ok {
		qos = q
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, data)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published to %s", topic)
			return nil
		}
		p.logger.Warnf("publish to %s failed (attempt %d): %v", topic, attempt+1, publishErr)
		time.Sleep(p.backoff)
	}
	return publishErr
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

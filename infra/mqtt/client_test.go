package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/internal/eventbus"
)

type publishedMsg struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	published   []publishedMsg
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{topic, qos, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) snapshot() []publishedMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMsg(nil), m.published...)
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func newTestPublisher(t *testing.T, mc *mockClient, cfg Config) *PahoPublisher {
	t.Helper()
	withMock(t, mc)
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
		cfg.ClientID = "test"
	}
	p, err := NewPahoPublisher(cfg)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	return p
}

func TestPublishTaskTopicsAndQoS(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{
		Broker:   "tcp://localhost:1883",
		ClientID: "test",
		QoS:      map[string]byte{TopicTaskAssigned: 1},
	})

	task := model.Task{ID: "t-1", Destination: model.LocICU, Priority: model.PriorityHigh, Status: model.TaskPending}
	if err := p.PublishTaskNew(task); err != nil {
		t.Fatalf("publish new: %v", err)
	}
	if err := p.PublishTaskAssigned("t-1", "r-1", model.LocICU, 210); err != nil {
		t.Fatalf("publish assigned: %v", err)
	}
	if err := p.PublishTaskComplete("t-1", "r-1", model.LocICU); err != nil {
		t.Fatalf("publish complete: %v", err)
	}

	if len(mc.published) != 3 {
		t.Fatalf("expected 3 publishes, got %d", len(mc.published))
	}
	if mc.published[0].topic != TopicTaskNew || mc.published[1].topic != TopicTaskAssigned || mc.published[2].topic != TopicTaskComplete {
		t.Fatalf("unexpected topics: %+v", mc.published)
	}
	if mc.published[1].qos != 1 {
		t.Fatalf("qos map not applied: %d", mc.published[1].qos)
	}

	var assigned map[string]any
	if err := json.Unmarshal(mc.published[1].payload, &assigned); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if assigned["robot_id"] != "r-1" || assigned["destination"] != "ICU" {
		t.Fatalf("assigned payload incomplete: %v", assigned)
	}
}

func TestPublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	p := newTestPublisher(t, mc, Config{
		Broker: "tcp://localhost:1883", ClientID: "test", MaxRetries: 1, BackoffMS: 1,
	})

	if err := p.PublishTaskComplete("t-1", "r-1", model.LocStorage); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected a retry, got %d publishes", len(mc.published))
	}
}

func TestPublishGivesUpAfterRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("down"), fmt.Errorf("down"), fmt.Errorf("down")}}
	p := newTestPublisher(t, mc, Config{
		Broker: "tcp://localhost:1883", ClientID: "test", MaxRetries: 2, BackoffMS: 1,
	})

	if err := p.PublishTaskComplete("t-1", "r-1", model.LocStorage); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestNewClientOptionsAuthAndWill(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker: "tcp://localhost:1883", ClientID: "id",
		Username: "u", Password: "p",
		LWTTopic: "fleet/lwt", LWTPayload: "bye", LWTQoS: 1,
	})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatal("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "fleet/lwt" || string(opts.WillPayload) != "bye" {
		t.Fatal("will options incorrect")
	}
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 || tlsCfg.RootCAs == nil {
		t.Fatal("tls material not loaded")
	}
}

func TestEventBridgePublishesLifecycle(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc, Config{})
	bus := eventbus.New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventBridge(ctx, bus, p, logger.NopLogger{})

	task := model.Task{ID: "t-1", Destination: model.LocICU, Priority: model.PriorityHigh, Status: model.TaskPending}
	bus.Publish(events.TaskCreated{Task: task})
	bus.Publish(events.AuctionWon{TaskID: "t-1", Destination: model.LocICU, RobotID: "r-1", Score: 42, Distance: 210})
	bus.Publish(events.MovementCompleted{
		Record:   model.MovementRecord{RobotID: "r-1", TaskID: "t-1", To: model.LocICU},
		TaskID:   "t-1",
		Duration: 3 * time.Second,
	})

	deadline := time.Now().Add(time.Second)
	var got []publishedMsg
	for time.Now().Before(deadline) {
		got = mc.snapshot()
		if len(got) == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bridged publishes, got %d", len(got))
	}
	if got[0].topic != TopicTaskNew || got[1].topic != TopicTaskAssigned || got[2].topic != TopicTaskComplete {
		t.Fatalf("unexpected topics: %+v", got)
	}
}

// generateCert writes a throwaway self-signed certificate for the TLS
// loader test.
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return certFile, keyFile, caFile
}

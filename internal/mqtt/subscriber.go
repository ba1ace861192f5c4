package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/farm-weather/internal/config"
)

// Handler receives each decoded station payload.
type Handler func(payload map[string]any)

// Subscriber consumes station telemetry published over MQTT.
type Subscriber struct {
	client  paho.Client
	topic   string
	logger  *slog.Logger
	handler Handler

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSubscriber configures a client for cfg.MQTTBroker. Connect must be called to start.
func NewSubscriber(cfg *config.AppConfig, handler Handler, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{
		topic:   cfg.MQTTTopic,
		logger:  logger,
		handler: handler,
		stopCh:  make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscriptions do not survive a clean-session reconnect, so renew them here.
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		if err := s.subscribe(c); err != nil {
			logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// Connect starts the connection and waits for the first attempt to finish,
// ctx expiring, or Disconnect being called.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe(c paho.Client) error {
	token := c.Subscribe(s.topic, 1, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", 1)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		s.logger.Warn("discarding mqtt message that is not a JSON object",
			"topic", topic,
			"error", err,
		)
		return
	}

	// farm/stations/<id>/data carries the station id when the body does not.
	if _, ok := raw["station_id"]; !ok {
		if _, ok := raw["stationId"]; !ok {
			if id := stationIDFromTopic(s.topic, topic); id != "" {
				raw["station_id"] = id
			}
		}
	}

	if s.handler != nil {
		s.handler(raw)
	}
}

// stationIDFromTopic returns the segment of topic matched by the first '+'
// wildcard in pattern, or "" when there is none.
func stationIDFromTopic(pattern, topic string) string {
	ps := strings.Split(pattern, "/")
	ts := strings.Split(topic, "/")
	for i, p := range ps {
		if p == "#" || i >= len(ts) {
			return ""
		}
		if p == "+" {
			return ts[i]
		}
	}
	return ""
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.topic)
		token.WaitTimeout(2 * time.Second)
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

// Package mqtt publishes live recording telemetry to an MQTT broker so
// companion tooling can follow a ride in progress. Disabled by default.
package mqtt

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/recorder"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// Config holds MQTT publisher configuration.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	Port        int    `json:"port"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         int    `json:"qos"`
	Retain      bool   `json:"retain"`
}

// DefaultConfig returns the default publisher configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		Broker:      "localhost",
		Port:        1883,
		ClientID:    "nabajkd",
		TopicPrefix: "nabajk",
		QoS:         0,
		Retain:      false,
	}
}

// Publisher forwards recording state snapshots to an MQTT topic.
type Publisher struct {
	config      *Config
	logger      *logx.Logger
	client      MQTT.Client
	unsubscribe func()
}

// NewPublisher creates a publisher; a nil config selects the defaults.
func NewPublisher(config *Config, logger *logx.Logger) *Publisher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Publisher{config: config, logger: logger}
}

// Connect establishes the broker connection. No-op when disabled.
func (p *Publisher) Connect() error {
	if !p.config.Enabled {
		return nil
	}

	opts := MQTT.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", p.config.Broker, p.config.Port)).
		SetClientID(p.config.ClientID).
		SetAutoReconnect(true)
	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}

	client := MQTT.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to MQTT broker: %w", err)
	}

	p.client = client
	p.logger.Info("MQTT telemetry connected", "broker", p.config.Broker, "port", p.config.Port)
	return nil
}

// Attach subscribes to the recorder and publishes every snapshot. No-op
// when disabled or not connected.
func (p *Publisher) Attach(rec *recorder.Recorder) {
	if !p.config.Enabled || p.client == nil {
		return
	}
	p.unsubscribe = rec.Subscribe(p.publishState)
}

func (p *Publisher) publishState(state ride.RecordingState) {
	payload, err := json.Marshal(state)
	if err != nil {
		p.logger.Warn("Failed to encode ride state", "error", err)
		return
	}

	topic := p.config.TopicPrefix + "/ride/state"
	token := p.client.Publish(topic, byte(p.config.QoS), p.config.Retain, payload)

	// Do not block the recorder's emit path on broker round-trips.
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("Failed to publish ride state", "topic", topic, "error", token.Error())
		}
	}()
}

// Close detaches from the recorder and disconnects from the broker.
func (p *Publisher) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	if p.client != nil {
		p.client.Disconnect(250)
		p.client = nil
	}
}

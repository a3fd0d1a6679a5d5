// Package mqtt broadcasts learning session progress over MQTT so
// other home automation pieces can follow along (or just archive what
// was learned when).
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Config holds MQTT configuration
type Config struct {
	Broker   string `yaml:"Broker"`
	Port     int    `yaml:"Port"`
	Username string `yaml:"Username"`
	Password string `yaml:"Password"`
	ClientID string `yaml:"ClientID"`
	Topic    string `yaml:"Topic"`
}

// Event types published during a session.
const (
	EventSessionStarted  = "session_started"
	EventSessionFinished = "session_finished"
	EventSessionAborted  = "session_aborted"
	EventCommand         = "command"
)

// Event is one progress notification.
type Event struct {
	Type          string    `json:"type"`
	OperationMode string    `json:"operation_mode,omitempty"`
	FanMode       string    `json:"fan_mode,omitempty"`
	SwingMode     string    `json:"swing_mode,omitempty"`
	Temperature   string    `json:"temperature,omitempty"`
	Captured      bool      `json:"captured"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher wraps the MQTT connection. A nil Publisher is valid and
// publishes nothing, so the broker stays strictly optional.
type Publisher struct {
	client mqtt.Client
	config Config
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(config Config) *Publisher {
	if config.ClientID == "" {
		config.ClientID = "smartir-learn"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", config.Broker, config.Port))
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetPingTimeout(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("MQTT connected successfully")
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		config: config,
	}
}

// Connect establishes connection to the MQTT broker
func (p *Publisher) Connect() error {
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	log.Printf("Connected to MQTT broker at %s:%d", p.config.Broker, p.config.Port)
	return nil
}

// Disconnect closes the connection to the MQTT broker
func (p *Publisher) Disconnect() {
	if p == nil {
		return
	}
	p.client.Disconnect(250)
}

// Topic returns the configured event topic.
func (p *Publisher) Topic() string {
	if p.config.Topic == "" {
		return "smartir/learn/event"
	}
	return p.config.Topic
}

// Publish sends one event. Failures are logged and swallowed: the
// learning session must survive broker loss.
func (p *Publisher) Publish(event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode event: %v", err)
		return
	}
	if token := p.client.Publish(p.Topic(), 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("Failed to publish event: %v", token.Error())
	}
}

package hive

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/joshp123/hive-heat/internal/config"
)

const publishTimeout = 10 * time.Second

// Publisher pushes heating status to an MQTT broker as a retained message.
type Publisher struct {
	client mqtt.Client
	topic  string
}

type statusMessage struct {
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Target      float64   `json:"target"`
	Working     bool      `json:"working"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewPublisher(cfg config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID + "-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(publishTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return newPublisher(client, cfg.Topic), nil
}

func newPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) Publish(device Device, status Status) error {
	payload, err := json.Marshal(statusMessage{
		DeviceID:    device.ID,
		Temperature: status.Temperature,
		Target:      status.Target,
		Working:     status.Working,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

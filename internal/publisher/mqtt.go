package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/config"
	"github.com/mamadbah2/footprint/internal/domain/models"
)

// client is the subset of mqtt.Client used by Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher announces saved surveys and the community total over MQTT.
type Publisher struct {
	client client
	topic  string
	logger *zap.Logger
}

// New connects to the configured broker.
func New(cfg config.MQTTConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newPublisher(c, cfg.Topic, logger), nil
}

func newPublisher(c client, topic string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: c, topic: topic, logger: logger}
}

// PublishSubmission sends the event on "<topic>/submissions" and retains the
// new community total on "<topic>".
func (p *Publisher) PublishSubmission(ctx context.Context, event models.SubmissionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding submission event: %w", err)
	}
	if err := p.publish(ctx, p.topic+"/submissions", false, body); err != nil {
		return err
	}

	total, err := json.Marshal(event.Community)
	if err != nil {
		return fmt.Errorf("encoding community total: %w", err)
	}
	if err := p.publish(ctx, p.topic, true, total); err != nil {
		return err
	}

	p.logger.Debug("submission published", zap.String("topic", p.topic), zap.String("month", event.Month))
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, 1, retained, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
}

// Close disconnects from the MQTT broker.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

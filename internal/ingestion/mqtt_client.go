package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const qos byte = 1

// Subscriber wires MQTT messages into the reading processor.
type Subscriber struct {
	cfg       config.MQTTConfig
	client    mqtt.Client
	processor *Processor

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewSubscriber(cfg config.MQTTConfig, processor *Processor) (*Subscriber, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is not configured")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		logger.Info("Reconnecting to MQTT broker...")
	})

	s := &Subscriber{cfg: cfg, processor: processor}
	// Subscriptions are not restored by the clean session; redo them on every connect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("✅ MQTT client connected", zap.String("broker", cfg.Broker))
		token := c.Subscribe(cfg.Topic, qos, s.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Error("❌ MQTT subscribe failed", zap.String("topic", cfg.Topic), zap.Error(err))
			return
		}
		logger.Info("📡 Listening for sensor readings", zap.String("topic", cfg.Topic))
	})

	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Start connects to the broker; the subscription happens in the connect handler.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	token := s.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		s.cancel()
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	s.started = true
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	token := s.client.Unsubscribe(s.cfg.Topic)
	token.Wait()
	if err := token.Error(); err != nil {
		logger.Warn("failed to unsubscribe from MQTT topic", zap.Error(err))
	}

	s.client.Disconnect(250)
	s.cancel()
	s.started = false
	logger.Info("Disconnected from MQTT broker")
}

func (s *Subscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	binID := BinIDFromTopic(s.cfg.Topic, msg.Topic())
	s.processor.HandleMessage(ctx, binID, msg.Payload())
}

package transport

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTT bridges a command topic to the dispatch queue. Payloads arriving
// on the topic are executed off the client's own goroutine and any
// output is published to <topic>/out.
type MQTT struct {
	queue  *Queue
	logger *zap.Logger
	topic  string
	client mqtt.Client
}

func NewMQTT(queue *Queue, logger *zap.Logger, broker, clientID, topic string) *MQTT {
	m := &MQTT{
		queue:  queue,
		logger: logger,
		topic:  topic,
	}

	options := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(m.onConnect)

	m.client = mqtt.NewClient(options)

	return m
}

func (m *MQTT) onConnect(client mqtt.Client) {
	token := client.Subscribe(m.topic, 0, m.onMessage)

	go func() {
		token.Wait()

		if err := token.Error(); err != nil {
			m.logger.Error("Subscription failed", zap.String("topic", m.topic), zap.Error(err))
			return
		}

		m.logger.Info("Command topic ready", zap.String("topic", m.topic))
	}()
}

func (m *MQTT) onMessage(client mqtt.Client, message mqtt.Message) {
	payload := string(message.Payload())

	if payload == "" {
		return
	}

	err := m.queue.Submit(EnsureTerminated(payload), func(output string, ok bool) {
		if output == "" {
			return
		}

		client.Publish(m.topic+"/out", 0, false, output)
	})

	if err != nil {
		m.logger.Warn("Command dropped", zap.String("topic", message.Topic()), zap.Error(err))
	}
}

// Run connects to the broker and serves the command topic until ctx is
// cancelled.
func (m *MQTT) Run(ctx context.Context) error {
	token := m.client.Connect()
	token.Wait()

	if err := token.Error(); err != nil {
		return err
	}

	<-ctx.Done()

	m.client.Disconnect(250)

	return ctx.Err()
}

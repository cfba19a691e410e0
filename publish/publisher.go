// Package publish announces ornament state changes over MQTT. It is an
// output only; nothing received from the broker changes the ornament.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"lautenbacher.net/ornament/config"
	"lautenbacher.net/ornament/gesture"
	"lautenbacher.net/ornament/state"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	qos            = 1
)

type gesturePayload struct {
	Kind  string      `json:"kind"`
	State state.State `json:"state"`
}

type resetPayload struct {
	Cause string `json:"cause"`
}

// Publisher implements controller.Observer. State is published retained
// on the topic, gestures and resets on subtopics.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the configured broker. The client reconnects on its own
// after a lost connection.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("MQTT connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			slog.Info("MQTT connected", "broker", cfg.Broker)
		})
	client := mqtt.NewClient(opts)
	t := client.Connect()
	if !t.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", cfg.Broker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return New(client, cfg.Topic), nil
}

func New(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) StateChanged(s state.State) {
	p.publish(p.topic, true, s)
}

// GestureRecognised skips long press ticks, which arrive on every tick
// of a hold and are already reflected in the state.
func (p *Publisher) GestureRecognised(ev gesture.Event, s state.State) {
	if _, ok := ev.(gesture.LongPressTick); ok {
		return
	}
	p.publish(p.topic+"/gesture", false, gesturePayload{Kind: ev.Kind(), State: s})
}

func (p *Publisher) StateReset(cause error) {
	p.publish(p.topic+"/reset", false, resetPayload{Cause: cause.Error()})
}

func (p *Publisher) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal MQTT payload", "topic", topic, "error", err)
		return
	}
	t := p.client.Publish(topic, qos, retained, payload)
	// observers run inside the tick, so delivery is checked elsewhere
	go func() {
		if !t.WaitTimeout(publishTimeout) {
			slog.Warn("MQTT publish timed out", "topic", topic)
			return
		}
		if err := t.Error(); err != nil {
			slog.Warn("MQTT publish failed", "topic", topic, "error", err)
		}
	}()
}

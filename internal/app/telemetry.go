// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// MQTT topics. Readings and status are retained so late subscribers get
// the last known value immediately.
const (
	topicReading  = "gearvr/reading"
	topicStatus   = "gearvr/status"
	topicGesture  = "gearvr/gesture"
	topicSettings = "gearvr/settings/set"
	topicCommand  = "gearvr/command"
)

// Sensor packets arrive at ~69 Hz; telemetry is throttled so the broker
// sees at most one reading per interval.
const readingPublishInterval = 50 * time.Millisecond

// telemetry wraps the MQTT client. A zero client means the broker was
// unreachable or disabled; every method degrades to a no-op then, the
// pipeline never depends on the broker.
type telemetry struct {
	client      mqtt.Client
	lastReading time.Time
}

// dialTelemetry connects to the broker. Failure is logged, not fatal.
func dialTelemetry(broker, clientID string) *telemetry {
	if broker == "" {
		return &telemetry{}
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("telemetry: mqtt connect to %s: %v (continuing without telemetry)", broker, token.Error())
		return &telemetry{}
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)
	return &telemetry{client: client}
}

func (t *telemetry) connected() bool {
	return t.client != nil
}

// publish marshals v and publishes it retained. Broker errors are
// reported from a goroutine so the caller never stalls.
func (t *telemetry) publish(topic string, v interface{}) {
	if t.client == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("telemetry: marshal (%s): %v", topic, err)
		return
	}
	token := t.client.Publish(topic, 0, true, payload)
	go func() {
		if token.Wait(); token.Error() != nil {
			log.Printf("telemetry: publish (%s): %v", topic, token.Error())
		}
	}()
}

func (t *telemetry) publishReading(r *controller.Reading, now time.Time) {
	if t.client == nil {
		return
	}
	if !t.lastReading.IsZero() && now.Sub(t.lastReading) < readingPublishInterval {
		return
	}
	t.lastReading = now
	t.publish(topicReading, r)
}

func (t *telemetry) publishStatus(s controller.ConnectionStatus) {
	t.publish(topicStatus, map[string]string{"status": s.String()})
}

// subscribe registers a handler and logs the subscription; shared by
// the monitor and console data paths.
func (t *telemetry) subscribe(topic string, handler mqtt.MessageHandler) error {
	if t.client == nil {
		return nil
	}
	token := t.client.Subscribe(topic, 0, handler)
	if token.Wait(); token.Error() != nil {
		return token.Error()
	}
	log.Printf("telemetry: subscribed to %s", topic)
	return nil
}

// subscribeSettings applies remote KEY=VALUE updates to the store and
// persists them. This is how the monitor reconfigures a running bridge.
func (t *telemetry) subscribeSettings(store *config.Store) error {
	return t.subscribe(topicSettings, func(_ mqtt.Client, msg mqtt.Message) {
		var values map[string]string
		if err := json.Unmarshal(msg.Payload(), &values); err != nil {
			log.Printf("telemetry: settings payload: %v", err)
			return
		}
		if err := store.Apply(values); err != nil {
			log.Printf("telemetry: settings rejected: %v", err)
			return
		}
		if err := store.Save(); err != nil {
			log.Printf("telemetry: settings save: %v", err)
		}
		log.Printf("telemetry: applied %d setting(s)", len(values))
	})
}

// subscribeCommands forwards one-shot actions (gyro calibration,
// re-center) into the bridge loop. The channel hand-off keeps the
// mapper single-goroutine.
func (t *telemetry) subscribeCommands(ch chan<- string) error {
	return t.subscribe(topicCommand, func(_ mqtt.Client, msg mqtt.Message) {
		var body map[string]string
		if err := json.Unmarshal(msg.Payload(), &body); err != nil {
			log.Printf("telemetry: command payload: %v", err)
			return
		}
		select {
		case ch <- body["action"]:
		default:
			log.Printf("telemetry: command %q dropped, queue full", body["action"])
		}
	})
}

// publishCommand sends a one-shot action, not retained so commands do
// not re-fire on reconnect.
func (t *telemetry) publishCommand(action string) {
	if t.client == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		log.Printf("telemetry: command marshal: %v", err)
		return
	}
	token := t.client.Publish(topicCommand, 0, false, payload)
	go func() {
		if token.Wait(); token.Error() != nil {
			log.Printf("telemetry: command publish: %v", token.Error())
		}
	}()
}

func (t *telemetry) close() {
	if t.client != nil {
		t.client.Disconnect(250)
	}
}

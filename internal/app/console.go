package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/mapper"
)

// RunConsole prints live bridge telemetry to stdout. Handy for checking
// the pipeline without opening the web monitor.
func RunConsole(configPath string) error {
	store, err := config.Open(configPath)
	if err != nil {
		return err
	}
	cfg := store.Snapshot()

	tel := dialTelemetry(cfg.MQTTBroker, "gearvr-console")
	if !tel.connected() {
		return fmt.Errorf("console: no MQTT broker at %s", cfg.MQTTBroker)
	}
	defer tel.close()

	err = tel.subscribe(topicReading, func(_ mqtt.Client, msg mqtt.Message) {
		var r controller.Reading
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: reading unmarshal: %v", err)
			return
		}
		fmt.Printf(
			"[DATA] touch=%v x=%3d y=%3d norm=(%+.2f,%+.2f)  accel=(%+.2f,%+.2f,%+.2f)  gyro=(%+.2f,%+.2f,%+.2f)  btns t=%v p=%v b=%v h=%v v+=%v v-=%v\n",
			r.Touched, r.TouchX, r.TouchY, r.NormX, r.NormY,
			r.AccelX, r.AccelY, r.AccelZ,
			r.GyroX, r.GyroY, r.GyroZ,
			r.Trigger, r.TouchpadClick, r.Back, r.Home, r.VolumeUp, r.VolumeDown,
		)
	})
	if err != nil {
		return err
	}

	err = tel.subscribe(topicStatus, func(_ mqtt.Client, msg mqtt.Message) {
		var body map[string]string
		if err := json.Unmarshal(msg.Payload(), &body); err != nil {
			log.Printf("console: status unmarshal: %v", err)
			return
		}
		fmt.Printf("[STAT] %s\n", body["status"])
	})
	if err != nil {
		return err
	}

	err = tel.subscribe(topicGesture, func(_ mqtt.Client, msg mqtt.Message) {
		var ev mapper.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: event unmarshal: %v", err)
			return
		}
		switch ev.Kind {
		case mapper.EventModeChange:
			fmt.Printf("[MODE] %s\n", ev.Mode)
		case mapper.EventGesture:
			fmt.Printf("[GEST] swipe %s\n", ev.Gesture)
		case mapper.EventShake:
			fmt.Printf("[SHKE] shake detected\n")
		case mapper.EventTilt:
			fmt.Printf("[TILT] ticks=%d\n", ev.Ticks)
		}
	})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/mapper"
	"github.com/relabs-tech/gearvr_bridge/internal/touchpad"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tooling only
	},
}

// wsMessage is what the browser sends on the calibration socket.
type wsMessage struct {
	Action string `json:"action"` // start, finish, cancel
}

type wsResponse struct {
	Type    string      `json:"type"` // started, sample, complete, canceled, error
	Count   int         `json:"count,omitempty"`
	Results interface{} `json:"results,omitempty"`
	Message string      `json:"message,omitempty"`
}

// monitor consumes bridge telemetry from MQTT and serves the browser UI:
// settings API, live reading stream and the calibration socket.
type monitor struct {
	store *config.Store
	tel   *telemetry

	mu          sync.RWMutex
	lastReading controller.Reading
	haveReading bool
	lastStatus  string
	lastEvent   *mapper.Event

	streamMu sync.Mutex
	streams  map[*websocket.Conn]struct{}

	// calMu also serializes writes on calConn; gorilla connections do
	// not allow concurrent writers.
	calMu   sync.Mutex
	session *touchpad.Session
	calConn *websocket.Conn
}

// RunMonitor serves the web UI and relays settings changes back to the
// bridge over MQTT.
func RunMonitor(configPath string) error {
	store, err := config.Open(configPath)
	if err != nil {
		return err
	}
	cfg := store.Snapshot()

	mon := &monitor{
		store:   store,
		streams: make(map[*websocket.Conn]struct{}),
	}

	tel := dialTelemetry(cfg.MQTTBroker, "gearvr-monitor")
	mon.tel = tel
	if tel.connected() {
		if err := tel.subscribe(topicReading, mon.onReading); err != nil {
			return err
		}
		if err := tel.subscribe(topicStatus, mon.onStatus); err != nil {
			return err
		}
		if err := tel.subscribe(topicGesture, mon.onEvent); err != nil {
			return err
		}
	} else {
		log.Println("monitor: no MQTT broker, live data disabled")
	}

	http.HandleFunc("/api/settings", mon.handleSettings)
	http.HandleFunc("/api/status", mon.handleStatus)
	http.HandleFunc("/api/command", mon.handleCommand)
	http.HandleFunc("/ws/stream", mon.handleStream)
	http.HandleFunc("/ws/calibrate", mon.handleCalibrate)
	http.Handle("/", http.FileServer(http.Dir("web")))

	log.Printf("monitor: listening on %s", cfg.MonitorAddr)
	return http.ListenAndServe(cfg.MonitorAddr, nil)
}

func (m *monitor) onReading(_ mqtt.Client, msg mqtt.Message) {
	var r controller.Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		log.Printf("monitor: reading unmarshal: %v", err)
		return
	}
	m.mu.Lock()
	m.lastReading = r
	m.haveReading = true
	m.mu.Unlock()

	m.broadcast(msg.Payload())
	m.feedCalibration(&r)
}

func (m *monitor) onStatus(_ mqtt.Client, msg mqtt.Message) {
	var body map[string]string
	if err := json.Unmarshal(msg.Payload(), &body); err != nil {
		log.Printf("monitor: status unmarshal: %v", err)
		return
	}
	m.mu.Lock()
	m.lastStatus = body["status"]
	m.mu.Unlock()
}

func (m *monitor) onEvent(_ mqtt.Client, msg mqtt.Message) {
	var ev mapper.Event
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		log.Printf("monitor: event unmarshal: %v", err)
		return
	}
	m.mu.Lock()
	m.lastEvent = &ev
	m.mu.Unlock()
}

// broadcast pushes a reading payload to every stream socket, dropping
// clients whose writes fail.
func (m *monitor) broadcast(payload []byte) {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	for conn := range m.streams {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(m.streams, conn)
		}
	}
}

func (m *monitor) feedCalibration(r *controller.Reading) {
	m.calMu.Lock()
	defer m.calMu.Unlock()
	if m.session == nil || !r.Touched {
		return
	}
	m.session.Add(r.TouchX, r.TouchY)
	if m.calConn != nil {
		m.calConn.WriteJSON(wsResponse{Type: "sample", Count: m.session.Count()})
	}
}

func (m *monitor) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.store.Snapshot()); err != nil {
			log.Printf("monitor: settings encode: %v", err)
		}

	case http.MethodPost:
		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := m.store.Apply(values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := m.store.Save(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// forward to the running bridge
		m.tel.publish(topicSettings, values)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.store.Snapshot()); err != nil {
			log.Printf("monitor: settings encode: %v", err)
		}

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	resp := struct {
		Status    string              `json:"status"`
		Reading   *controller.Reading `json:"reading,omitempty"`
		LastEvent *mapper.Event       `json:"last_event,omitempty"`
	}{Status: m.lastStatus, LastEvent: m.lastEvent}
	if m.haveReading {
		r := m.lastReading
		resp.Reading = &r
	}
	m.mu.RUnlock()

	if resp.Status == "" {
		resp.Status = "unknown"
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("monitor: status encode: %v", err)
	}
}

// handleCommand forwards one-shot actions to the bridge.
func (m *monitor) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch body.Action {
	case "calibrate_gyro", "recenter":
		m.tel.publishCommand(body.Action)
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", body.Action), http.StatusBadRequest)
	}
}

// handleStream upgrades to a websocket and keeps the client registered
// until it disconnects. Data flows one way, out.
func (m *monitor) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: stream upgrade: %v", err)
		return
	}
	m.streamMu.Lock()
	m.streams[conn] = struct{}{}
	m.streamMu.Unlock()

	// drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	m.streamMu.Lock()
	delete(m.streams, conn)
	m.streamMu.Unlock()
	conn.Close()
}

// handleCalibrate runs a touchpad calibration session over a websocket.
// Samples arrive via MQTT while the browser shows progress; finish
// persists the bounds and pushes them to the bridge.
func (m *monitor) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: calibrate upgrade: %v", err)
		return
	}
	defer conn.Close()
	defer m.endCalibration(conn)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		m.calMu.Lock()
		switch msg.Action {
		case "start":
			m.session = touchpad.NewSession()
			m.calConn = conn
			conn.WriteJSON(wsResponse{Type: "started", Message: "trace the full edge of the touchpad"})

		case "finish":
			sess := m.session
			m.session = nil
			m.calConn = nil
			if sess == nil {
				conn.WriteJSON(wsResponse{Type: "error", Message: "no active calibration"})
				break
			}
			cal, err := sess.Result()
			if err != nil {
				conn.WriteJSON(wsResponse{Type: "error", Message: err.Error()})
				break
			}
			if err := m.saveCalibration(cal); err != nil {
				conn.WriteJSON(wsResponse{Type: "error", Message: err.Error()})
				break
			}
			log.Printf("monitor: calibration saved: %+v", cal)
			conn.WriteJSON(wsResponse{Type: "complete", Results: cal})

		case "cancel":
			m.session = nil
			m.calConn = nil
			conn.WriteJSON(wsResponse{Type: "canceled"})

		default:
			conn.WriteJSON(wsResponse{Type: "error", Message: fmt.Sprintf("unknown action %q", msg.Action)})
		}
		m.calMu.Unlock()
	}
}

func (m *monitor) endCalibration(conn *websocket.Conn) {
	m.calMu.Lock()
	defer m.calMu.Unlock()
	if m.calConn == conn {
		m.session = nil
		m.calConn = nil
	}
}

func (m *monitor) saveCalibration(cal controller.TouchpadCalibration) error {
	if err := m.store.SetCalibration(cal); err != nil {
		return err
	}
	if err := m.store.Save(); err != nil {
		return err
	}
	m.tel.publish(topicSettings, map[string]string{
		"CAL_MIN_X":    strconv.Itoa(int(cal.MinX)),
		"CAL_MAX_X":    strconv.Itoa(int(cal.MaxX)),
		"CAL_MIN_Y":    strconv.Itoa(int(cal.MinY)),
		"CAL_MAX_Y":    strconv.Itoa(int(cal.MaxY)),
		"CAL_CENTER_X": strconv.Itoa(int(cal.CenterX)),
		"CAL_CENTER_Y": strconv.Itoa(int(cal.CenterY)),
	})
	return nil
}

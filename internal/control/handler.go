// Package control is the remote control plane: JSON commands over MQTT that
// adjust the live feed parameters. Every parameter setter takes effect on the
// next render cycle, never on one in flight.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Command represents a control plane command.
//
// Supported commands and their params:
//
//	set_zoom          {"level": 1.0..3.0}
//	set_pan           {"pan_x": -1.0..1.0, "pan_y": -1.0..1.0} (either or both)
//	set_window_size   {"width": 100..500, "height": 100..500} (either or both)
//	set_border_width  {"width": 0..20}
//	set_border_radius {"radius": 0..100}
//	set_border_color  {"color": "#rrggbb"}
//	toggle_feed       (no params)
//	get_status        (no params)
//
// Out-of-range values are clamped by the parameter store, not rejected.
type Command struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a command acknowledgment.
type Response struct {
	CommandAck string                 `json:"command_ack"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// Callbacks contains the callback functions commands dispatch into. A nil
// callback makes its command report "not implemented" instead of panicking.
type Callbacks struct {
	OnSetZoom         func(level float64)
	OnSetPanX         func(pan float64)
	OnSetPanY         func(pan float64)
	OnSetWindowWidth  func(width int)
	OnSetWindowHeight func(height int)
	OnSetBorderWidth  func(width int)
	OnSetBorderRadius func(radius int)
	OnSetBorderColor  func(color string)
	OnToggleFeed      func() bool
	OnGetStatus       func() map[string]interface{}
}

// Config contains the MQTT wiring for the control plane.
type Config struct {
	Broker        string
	ClientID      string
	CommandTopic  string
	ResponseTopic string
	QoS           byte
}

// Handler subscribes to the command topic and dispatches into callbacks.
type Handler struct {
	cfg       Config
	client    mqtt.Client
	callbacks Callbacks
	commands  chan Command

	mu      sync.Mutex
	started bool
}

// NewHandler creates a control plane handler on an already connected client.
func NewHandler(cfg Config, client mqtt.Client, callbacks Callbacks) *Handler {
	return &Handler{
		cfg:       cfg,
		client:    client,
		callbacks: callbacks,
		commands:  make(chan Command, 10),
	}
}

// Connect builds and connects an MQTT client for the control plane, with
// auto-reconnect in the broker's absence.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		slog.Info("mqtt connection established", "broker", cfg.Broker, "client_id", cfg.ClientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("control: mqtt connect failed: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return client, nil
}

// Start subscribes to the command topic and begins processing.
func (h *Handler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("control: handler already started")
	}

	token := h.client.Subscribe(h.cfg.CommandTopic, h.cfg.QoS, h.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control: subscription timeout on %s", h.cfg.CommandTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control: subscription failed: %w", err)
	}
	h.started = true

	slog.Info("control plane started", "topic", h.cfg.CommandTopic)
	go h.processCommands(ctx)
	return nil
}

// Stop unsubscribes from the command topic.
func (h *Handler) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return nil
	}
	h.started = false

	if h.client != nil && h.client.IsConnected() {
		token := h.client.Unsubscribe(h.cfg.CommandTopic)
		token.WaitTimeout(2 * time.Second)
	}
	close(h.commands)
	slog.Info("control plane stopped")
	return nil
}

func (h *Handler) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		slog.Error("control: failed to parse command", "error", err)
		h.sendResponse(Response{CommandAck: "unknown", Status: "error", Error: "invalid JSON"})
		return
	}

	slog.Debug("control: command received", "command", cmd.Command)
	select {
	case h.commands <- cmd:
	default:
		slog.Warn("control: command queue full, dropping", "command", cmd.Command)
	}
}

func (h *Handler) processCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-h.commands:
			if !ok {
				return
			}
			h.sendResponse(h.dispatch(cmd))
		}
	}
}

// dispatch executes one command against the callbacks and builds the
// acknowledgment. Split from the MQTT plumbing so it can be tested without
// a broker.
func (h *Handler) dispatch(cmd Command) Response {
	resp := Response{CommandAck: cmd.Command, Status: "success"}

	switch cmd.Command {
	case "set_zoom":
		level, ok := floatParam(cmd.Params, "level")
		switch {
		case !ok:
			resp.Status = "error"
			resp.Error = "missing param: level"
		case h.callbacks.OnSetZoom == nil:
			resp.Status = "error"
			resp.Error = "set_zoom not implemented"
		default:
			h.callbacks.OnSetZoom(level)
			resp.Data = map[string]interface{}{"level": level}
		}

	case "set_pan":
		px, okX := floatParam(cmd.Params, "pan_x")
		py, okY := floatParam(cmd.Params, "pan_y")
		if !okX && !okY {
			resp.Status = "error"
			resp.Error = "missing params: pan_x and/or pan_y"
			break
		}
		if okX && h.callbacks.OnSetPanX != nil {
			h.callbacks.OnSetPanX(px)
		}
		if okY && h.callbacks.OnSetPanY != nil {
			h.callbacks.OnSetPanY(py)
		}

	case "set_window_size":
		w, okW := intParam(cmd.Params, "width")
		hh, okH := intParam(cmd.Params, "height")
		if !okW && !okH {
			resp.Status = "error"
			resp.Error = "missing params: width and/or height"
			break
		}
		if okW && h.callbacks.OnSetWindowWidth != nil {
			h.callbacks.OnSetWindowWidth(w)
		}
		if okH && h.callbacks.OnSetWindowHeight != nil {
			h.callbacks.OnSetWindowHeight(hh)
		}

	case "set_border_width":
		w, ok := intParam(cmd.Params, "width")
		if !ok {
			resp.Status = "error"
			resp.Error = "missing param: width"
		} else if h.callbacks.OnSetBorderWidth != nil {
			h.callbacks.OnSetBorderWidth(w)
		}

	case "set_border_radius":
		r, ok := intParam(cmd.Params, "radius")
		if !ok {
			resp.Status = "error"
			resp.Error = "missing param: radius"
		} else if h.callbacks.OnSetBorderRadius != nil {
			h.callbacks.OnSetBorderRadius(r)
		}

	case "set_border_color":
		c, ok := stringParam(cmd.Params, "color")
		if !ok {
			resp.Status = "error"
			resp.Error = "missing param: color"
		} else if h.callbacks.OnSetBorderColor != nil {
			h.callbacks.OnSetBorderColor(c)
		}

	case "toggle_feed":
		if h.callbacks.OnToggleFeed == nil {
			resp.Status = "error"
			resp.Error = "toggle_feed not implemented"
		} else {
			visible := h.callbacks.OnToggleFeed()
			resp.Data = map[string]interface{}{"visible": visible}
		}

	case "get_status":
		if h.callbacks.OnGetStatus == nil {
			resp.Status = "error"
			resp.Error = "get_status not implemented"
		} else {
			resp.Data = h.callbacks.OnGetStatus()
		}

	default:
		resp.Status = "error"
		resp.Error = fmt.Sprintf("unknown command: %s", cmd.Command)
	}

	return resp
}

func (h *Handler) sendResponse(resp Response) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(resp)
	if err != nil {
		slog.Error("control: failed to marshal response", "error", err)
		return
	}
	if h.client == nil || !h.client.IsConnected() {
		return
	}
	h.client.Publish(h.cfg.ResponseTopic, h.cfg.QoS, false, payload)
}

// JSON numbers decode as float64; the param helpers normalize from there.

func floatParam(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	f, ok := floatParam(params, key)
	return int(f), ok
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/warwick-one-metre/rg11d/internal/config"
	"github.com/warwick-one-metre/rg11d/internal/httpapi"
	"github.com/warwick-one-metre/rg11d/internal/measurement"
	"github.com/warwick-one-metre/rg11d/internal/mqtt"
	"github.com/warwick-one-metre/rg11d/internal/publisher"
	"github.com/warwick-one-metre/rg11d/internal/transport"
	"github.com/warwick-one-metre/rg11d/internal/watcher"
)

// Run wires the daemon together and blocks until ctx is cancelled or a
// fatal error occurs.
func Run(ctx context.Context, cfg config.Config, version string) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"stationID", cfg.StationID,
		"transport", cfg.Transport,
		"readTimeout", cfg.ReadTimeout,
		"reconnectDelay", cfg.ReconnectDelay,
		"mqttBroker", cfg.MQTTBroker,
	)

	tr, err := buildTransport(cfg)
	if err != nil {
		return err
	}

	pub := publisher.New()
	sink := watcher.Sink(pub)

	// Optional MQTT republish: fan the watcher's updates out to the
	// broker without ever blocking the read loop.
	var mqttClient *mqtt.Client
	if cfg.MQTTBroker != "" {
		mqttClient = mqtt.NewClient(cfg, slog.Default())
		forward := newForwarder(pub, mqttClient)
		sink = forward
		go forward.run(ctx)

		// Short timeout so a down broker does not block startup; paho
		// keeps retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	w := watcher.New(tr, sink, version, slog.Default(),
		watcher.WithReconnectDelay(cfg.ReconnectDelay))

	watcherErr := make(chan error, 1)
	go func() {
		slog.Info("watching multiplexer", "transport", tr.String())
		watcherErr <- w.Run(ctx)
	}()

	mux := httpapi.NewMux(pub, w)
	srv := httpapi.NewServer(cfg, mux)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-watcherErr:
		// The watcher only returns early on a configuration error.
		if err != nil {
			return err
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttClient != nil {
		slog.Info("mqtt disconnecting")
		mqttClient.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-serverErr
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func buildTransport(cfg config.Config) (transport.Transport, error) {
	switch cfg.Transport {
	case "serial":
		return transport.NewSerial(cfg.SerialDevice, cfg.SerialBaud, cfg.ReadTimeout)
	case "tcp":
		return transport.NewTCP(cfg.TCPHost, cfg.TCPPort, cfg.ReadTimeout)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// forwarder passes updates to the publisher synchronously and queues
// them for MQTT with last-value-wins semantics: if the broker is slow
// the oldest pending reading is dropped, never the watcher blocked.
type forwarder struct {
	pub  *publisher.Publisher
	mqtt *mqtt.Client
	ch   chan measurement.Measurement
}

func newForwarder(pub *publisher.Publisher, client *mqtt.Client) *forwarder {
	return &forwarder{
		pub:  pub,
		mqtt: client,
		ch:   make(chan measurement.Measurement, 1),
	}
}

func (f *forwarder) Update(m measurement.Measurement) {
	f.pub.Update(m)
	for {
		select {
		case f.ch <- m:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *forwarder) Clear() {
	f.pub.Clear()
}

func (f *forwarder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-f.ch:
			if err := f.mqtt.PublishMeasurement(m); err != nil {
				slog.Debug("mqtt republish skipped", "error", err)
			}
		}
	}
}

package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "STATION_ID", "TRANSPORT",
		"SERIAL_DEVICE", "SERIAL_BAUD", "TCP_HOST", "TCP_PORT",
		"READ_TIMEOUT", "RECONNECT_DELAY", "MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID",
	} {
		t.Setenv(key, "")
	}
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() err = %v; want nil", err)
	}
	if cfg.AppEnv != "dev" {
		t.Errorf("AppEnv = %q; want dev", cfg.AppEnv)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v; want info", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":9007" {
		t.Errorf("HTTPAddr = %q; want :9007", cfg.HTTPAddr)
	}
	if cfg.StationID != "rg11" {
		t.Errorf("StationID = %q; want rg11", cfg.StationID)
	}
	if cfg.Transport != "serial" {
		t.Errorf("Transport = %q; want serial", cfg.Transport)
	}
	if cfg.SerialDevice != "/dev/rg11" {
		t.Errorf("SerialDevice = %q; want /dev/rg11", cfg.SerialDevice)
	}
	if cfg.SerialBaud != 9600 {
		t.Errorf("SerialBaud = %d; want 9600", cfg.SerialBaud)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v; want 15s", cfg.ReadTimeout)
	}
	if cfg.ReconnectDelay != 10*time.Second {
		t.Errorf("ReconnectDelay = %v; want 10s", cfg.ReconnectDelay)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q; want empty (disabled)", cfg.MQTTBroker)
	}
	if cfg.MQTTClientID != "rg11d-rg11" {
		t.Errorf("MQTTClientID = %q; want rg11d-rg11", cfg.MQTTClientID)
	}
}

func TestLoadFromEnv_TCPTransport(t *testing.T) {
	t.Setenv("TRANSPORT", "tcp")
	t.Setenv("TCP_HOST", "rg11-bridge")
	t.Setenv("TCP_PORT", "4001")
	t.Setenv("READ_TIMEOUT", "5s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() err = %v; want nil", err)
	}
	if cfg.Transport != "tcp" || cfg.TCPHost != "rg11-bridge" || cfg.TCPPort != 4001 {
		t.Errorf("tcp config = %q %q %d", cfg.Transport, cfg.TCPHost, cfg.TCPPort)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v; want 5s", cfg.ReadTimeout)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad app env", "APP_ENV", "staging"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad transport", "TRANSPORT", "carrier-pigeon"},
		{"bad baud", "SERIAL_BAUD", "fast"},
		{"bad tcp port", "TCP_PORT", "abc"},
		{"bad timeout", "READ_TIMEOUT", "soon"},
		{"negative timeout", "READ_TIMEOUT", "-5s"},
		{"bad reconnect delay", "RECONNECT_DELAY", "0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q: err = nil; want non-nil", tc.key, tc.value)
			}
		})
	}
}

func TestLoadFromEnv_TCPRequiresHost(t *testing.T) {
	t.Setenv("TRANSPORT", "tcp")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv() with TRANSPORT=tcp and no TCP_HOST: err = nil; want non-nil")
	}
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StationID names this multiplexer in MQTT topics and client output.
	StationID string

	Transport    string // "serial" or "tcp"
	SerialDevice string
	SerialBaud   int
	TCPHost      string
	TCPPort      int

	ReadTimeout    time.Duration
	ReconnectDelay time.Duration

	// MQTTBroker empty disables the republish path entirely.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":9007"
	}

	stationID := strings.TrimSpace(os.Getenv("STATION_ID"))
	if stationID == "" {
		stationID = "rg11"
	}

	transportKind := strings.TrimSpace(os.Getenv("TRANSPORT"))
	if transportKind == "" {
		transportKind = "serial"
	}
	switch transportKind {
	case "serial", "tcp":
	default:
		return Config{}, fmt.Errorf("invalid TRANSPORT %q (allowed: serial, tcp)", transportKind)
	}

	serialDevice := strings.TrimSpace(os.Getenv("SERIAL_DEVICE"))
	if serialDevice == "" {
		serialDevice = "/dev/rg11"
	}

	serialBaud, err := intFromEnv("SERIAL_BAUD", 9600)
	if err != nil {
		return Config{}, err
	}

	tcpHost := strings.TrimSpace(os.Getenv("TCP_HOST"))
	tcpPort, err := intFromEnv("TCP_PORT", 3000)
	if err != nil {
		return Config{}, err
	}
	if transportKind == "tcp" && tcpHost == "" {
		return Config{}, fmt.Errorf("TCP_HOST is required when TRANSPORT=tcp")
	}

	readTimeout, err := durationFromEnv("READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	reconnectDelay, err := durationFromEnv("RECONNECT_DELAY", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPort, err := intFromEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "rg11d-" + stationID
	}

	return Config{
		AppEnv:         appEnv,
		LogLevel:       level,
		HTTPAddr:       httpAddr,
		StationID:      stationID,
		Transport:      transportKind,
		SerialDevice:   serialDevice,
		SerialBaud:     serialBaud,
		TCPHost:        tcpHost,
		TCPPort:        tcpPort,
		ReadTimeout:    readTimeout,
		ReconnectDelay: reconnectDelay,
		MQTTBroker:     mqttBroker,
		MQTTPort:       mqttPort,
		MQTTClientID:   mqttClientID,
	}, nil
}

func intFromEnv(name string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func durationFromEnv(name string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, s)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

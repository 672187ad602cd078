package config

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"
)

type Approach int

const (
	HTTPApproach Approach = iota
	FastHTTPApproach
	GRPCApproach
)

func (a Approach) String() string {
	switch a {
	case HTTPApproach:
		return "http"
	case FastHTTPApproach:
		return "fasthttp"
	case GRPCApproach:
		return "grpc"
	default:
		return fmt.Sprintf("Approach(%d)", int(a))
	}
}

func ParseApproach(s string) (Approach, error) {
	switch s {
	case "http":
		return HTTPApproach, nil
	case "fasthttp":
		return FastHTTPApproach, nil
	case "grpc":
		return GRPCApproach, nil
	default:
		return 0, fmt.Errorf("unknown approach %q", s)
	}
}

const (
	PortEnv     = "SQNZ_PORT"
	RootEnv     = "SQNZ_ROOT"
	ServerEnv   = "SQNZ_SERVER"
	GRPCPortEnv = "SQNZ_GRPC_PORT"
	LogLevelEnv = "SQNZ_LOG_LEVEL"

	DefaultPort     = 8080
	DefaultRoot     = "sequences"
	DefaultLogLevel = "info"
)

// Config is the process configuration, read from SQNZ_* environment variables.
type Config struct {
	Port uint16
	// GRPCPort is zero when the gRPC API is disabled.
	GRPCPort uint16
	Root     string
	// Server selects the HTTP engine, either HTTPApproach or FastHTTPApproach.
	Server   Approach
	LogLevel string
}

func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Config{
		Port:     DefaultPort,
		Root:     DefaultRoot,
		Server:   HTTPApproach,
		LogLevel: DefaultLogLevel,
	}
	if v, ok := lookup(PortEnv); ok && v != "" {
		p, err := parsePort(v)
		if err != nil {
			return Config{}, fmt.Errorf("could not parse port: %w", err)
		}
		c.Port = p
	}
	if v, ok := lookup(GRPCPortEnv); ok && v != "" {
		p, err := parsePort(v)
		if err != nil {
			return Config{}, fmt.Errorf("could not parse grpc port: %w", err)
		}
		c.GRPCPort = p
	}
	if v, ok := lookup(RootEnv); ok && v != "" {
		c.Root = v
	}
	if v, ok := lookup(ServerEnv); ok && v != "" {
		a, err := ParseApproach(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", ServerEnv, err)
		}
		if a == GRPCApproach {
			return Config{}, fmt.Errorf("invalid %s: %s is not an HTTP engine", ServerEnv, a)
		}
		c.Server = a
	}
	if v, ok := lookup(LogLevelEnv); ok && v != "" {
		if _, err := zapcore.ParseLevel(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", LogLevelEnv, err)
		}
		c.LogLevel = v
	}
	return c, nil
}

func parsePort(s string) (uint16, error) {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(p), nil
}

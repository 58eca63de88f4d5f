package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the relay backend.
type ServerConfig struct {
	Env               string
	ListenAddr        string
	HeartbeatInterval time.Duration
	TranslatorBaseURL string
}

func (c *ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %s", c.HeartbeatInterval)
	}
	return nil
}

func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Agent roles and capture strategies accepted in configuration.
const (
	RoleHeadset = "headset"
	RolePhone   = "phone"

	StrategyNative = "native"
	StrategyVAD    = "vad"
	StrategyManual = "manual"
)

// AgentConfig configures one device agent, either the headset side or
// the phone side of a session.
type AgentConfig struct {
	Env          string
	ServerURL    string
	Role         string
	Language     string
	PeerLanguage string
	RoomCode     string
	Strategy     string

	AudioInput  string
	AudioFormat string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
}

func (c *AgentConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}
	if c.Language == "" {
		return fmt.Errorf("LANGUAGE is required")
	}
	switch c.Role {
	case RoleHeadset:
	case RolePhone:
		if c.RoomCode == "" {
			return fmt.Errorf("ROOM_CODE is required when ROLE=phone")
		}
	default:
		return fmt.Errorf("ROLE must be %q or %q, got %q", RoleHeadset, RolePhone, c.Role)
	}
	switch c.Strategy {
	case StrategyNative, StrategyVAD, StrategyManual:
	default:
		return fmt.Errorf("CAPTURE_STRATEGY must be one of native, vad, manual, got %q", c.Strategy)
	}
	switch c.AudioFormat {
	case "pcm", "opus":
	default:
		return fmt.Errorf("AUDIO_FORMAT must be pcm or opus, got %q", c.AudioFormat)
	}
	return nil
}

func (c *AgentConfig) IsDevelopment() bool {
	return c.Env == "development"
}

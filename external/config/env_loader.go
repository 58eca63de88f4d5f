package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/jimakun/internal/config"
)

type serverEnvConfig struct {
	Env               string        `env:"ENV" envDefault:"production"`
	ListenAddr        string        `env:"LISTEN_ADDR" envDefault:":8080"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`
	TranslatorBaseURL string        `env:"TRANSLATOR_BASE_URL"`
}

func LoadServer() (*internalconfig.ServerConfig, error) {
	var raw serverEnvConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.ServerConfig{
		Env:               raw.Env,
		ListenAddr:        raw.ListenAddr,
		HeartbeatInterval: raw.HeartbeatInterval,
		TranslatorBaseURL: raw.TranslatorBaseURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type agentEnvConfig struct {
	Env          string `env:"ENV" envDefault:"production"`
	ServerURL    string `env:"SERVER_URL,required"`
	Role         string `env:"ROLE,required"`
	Language     string `env:"LANGUAGE,required"`
	PeerLanguage string `env:"PEER_LANGUAGE"`
	RoomCode     string `env:"ROOM_CODE"`
	Strategy     string `env:"CAPTURE_STRATEGY" envDefault:"native"`

	AudioInput  string `env:"AUDIO_INPUT" envDefault:"-"`
	AudioFormat string `env:"AUDIO_FORMAT" envDefault:"pcm"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
}

func LoadAgent() (*internalconfig.AgentConfig, error) {
	var raw agentEnvConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.AgentConfig{
		Env:                        raw.Env,
		ServerURL:                  raw.ServerURL,
		Role:                       raw.Role,
		Language:                   raw.Language,
		PeerLanguage:               raw.PeerLanguage,
		RoomCode:                   raw.RoomCode,
		Strategy:                   raw.Strategy,
		AudioInput:                 raw.AudioInput,
		AudioFormat:                raw.AudioFormat,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

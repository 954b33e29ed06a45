package config

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "OBSERVABILITY_ADDR",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL",
		"ARK_BASE_URL", "ARK_REGION", "ARK_TEMPERATURE", "ARK_TOP_P",
		"ARK_MAX_TOKENS", "ARK_STREAM", "AI_HISTORY_LIMIT",
		"SPEECH_APP_ID", "SPEECH_ACCESS_TOKEN", "SPEECH_API_KEY",
		"SPEECH_TIMEOUT", "SPEECH_TTS_SPEED", "SPEECH_TTS_VOLUME",
		"SPEECH_SAMPLE_RATE", "SPEECH_TTS_SAMPLE_RATE",
		"MONGO_URI", "MONGO_DATABASE",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "ALLOW_DEGRADED",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.ObservabilityAddr != ":9090" {
		t.Errorf("ObservabilityAddr = %q, want :9090", cfg.Server.ObservabilityAddr)
	}
	if cfg.AI.Enabled() {
		t.Error("AI should be disabled without credentials")
	}
	if cfg.AI.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d, want 20", cfg.AI.HistoryLimit)
	}
	if !cfg.AI.StreamResponse {
		t.Error("streaming should default to on")
	}
	if cfg.Speech.Enabled {
		t.Error("speech should be disabled without credentials")
	}
	if cfg.Speech.SampleRate != 16000 || cfg.Speech.TTSSampleRate != 24000 {
		t.Errorf("sample rates = %d/%d, want 16000/24000", cfg.Speech.SampleRate, cfg.Speech.TTSSampleRate)
	}
	if cfg.Store.Enabled() {
		t.Error("store should be disabled without MONGO_URI")
	}
	if cfg.Events.Enabled {
		t.Error("events should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.AllowDegraded {
		t.Error("degraded mode must be off by default so missing credentials are fatal")
	}
}

func TestAllowDegradedOptIn(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOW_DEGRADED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AllowDegraded {
		t.Error("ALLOW_DEGRADED=true should enable degraded startup")
	}
}

func TestServerAddrFromPort(t *testing.T) {
	tests := []struct {
		port    string
		want    string
		wantErr bool
	}{
		{"", ":8080", false},
		{"3000", ":3000", false},
		{":4000", ":4000", false},
		{"0.0.0.0:8080", "0.0.0.0:8080", false},
		{"80 80", "", true},
	}

	for _, tt := range tests {
		clearEnv(t)
		t.Setenv("PORT", tt.port)

		server, err := loadServerConfig()
		if tt.wantErr {
			if err == nil {
				t.Errorf("PORT=%q: expected error", tt.port)
			}
			continue
		}
		if err != nil {
			t.Errorf("PORT=%q: %v", tt.port, err)
			continue
		}
		if server.Addr != tt.want {
			t.Errorf("PORT=%q: Addr = %q, want %q", tt.port, server.Addr, tt.want)
		}
	}
}

func TestAIConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"api key", AIConfig{Model: "doubao-pro", APIKey: "k"}, true},
		{"ak/sk pair", AIConfig{Model: "doubao-pro", AccessKey: "ak", SecretKey: "sk"}, true},
		{"no model", AIConfig{APIKey: "k"}, false},
		{"no credentials", AIConfig{Model: "doubao-pro"}, false},
		{"access key alone", AIConfig{Model: "doubao-pro", AccessKey: "ak"}, false},
	}

	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%s: Enabled() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSpeechConfigCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEECH_APP_ID", "app-1")
	t.Setenv("SPEECH_ACCESS_TOKEN", "tok-1")

	speech, err := loadSpeechConfig()
	if err != nil {
		t.Fatalf("loadSpeechConfig: %v", err)
	}
	if !speech.Enabled {
		t.Error("speech should be enabled with app id and access token")
	}
	if speech.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %q, want tok-1", speech.AccessToken)
	}
}

func TestSpeechConfigAPIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEECH_APP_ID", "app-1")
	t.Setenv("SPEECH_API_KEY", "key-1")

	speech, err := loadSpeechConfig()
	if err != nil {
		t.Fatalf("loadSpeechConfig: %v", err)
	}
	if speech.AccessToken != "key-1" {
		t.Errorf("AccessToken = %q, want api key fallback", speech.AccessToken)
	}
	if !speech.Enabled {
		t.Error("speech should be enabled via api key fallback")
	}
}

func TestSpeechConfigRequiresAppID(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEECH_ACCESS_TOKEN", "tok-1")

	speech, err := loadSpeechConfig()
	if err != nil {
		t.Fatalf("loadSpeechConfig: %v", err)
	}
	if speech.Enabled {
		t.Error("speech must not enable without SPEECH_APP_ID")
	}
}

func TestEventsRequireBrokers(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAFKA_ENABLED", "true")

	events, err := loadEventsConfig()
	if err != nil {
		t.Fatalf("loadEventsConfig: %v", err)
	}
	if events.Enabled {
		t.Error("events must not enable without brokers")
	}

	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	events, err = loadEventsConfig()
	if err != nil {
		t.Fatalf("loadEventsConfig: %v", err)
	}
	if !events.Enabled {
		t.Error("events should enable with brokers present")
	}
	if len(events.Brokers) != 2 || events.Brokers[0] != "kafka-1:9092" || events.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Brokers = %v", events.Brokers)
	}
}

func TestInvalidValuesFailFast(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"ARK_STREAM", "definitely"},
		{"ARK_TEMPERATURE", "warm"},
		{"ARK_MAX_TOKENS", "many"},
		{"SPEECH_TIMEOUT", "soon"},
		{"SPEECH_TTS_SPEED", "fast"},
		{"KAFKA_ENABLED", "si"},
		{"ALLOW_DEGRADED", "maybe"},
	}

	for _, tt := range tests {
		clearEnv(t)
		t.Setenv(tt.key, tt.value)

		_, err := Load()
		if err == nil {
			t.Errorf("%s=%q: expected error", tt.key, tt.value)
			continue
		}
		if !strings.Contains(err.Error(), tt.key) {
			t.Errorf("%s: error %q does not name the variable", tt.key, err)
		}
	}
}

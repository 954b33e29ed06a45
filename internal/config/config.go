package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	Store   StoreConfig
	Events  EventsConfig
	Logging LoggingConfig

	// AllowDegraded lets the process start without model or speech
	// credentials, with the affected surfaces unmounted. Off by default:
	// a production deploy with missing credentials should die at startup,
	// not 404 per request.
	AllowDegraded bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	events, err := loadEventsConfig()
	if err != nil {
		return nil, err
	}

	allowDegraded, err := parseBoolEnv("ALLOW_DEGRADED", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		AI:            ai,
		Speech:        speech,
		Store:         loadStoreConfig(),
		Events:        events,
		Logging:       loadLoggingConfig(),
		AllowDegraded: allowDegraded,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr              string
	ObservabilityAddr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	addr := port
	if !strings.Contains(port, ":") {
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	return ServerConfig{
		Addr:              addr,
		ObservabilityAddr: getEnvOrDefault("OBSERVABILITY_ADDR", ":9090"),
	}, nil
}

// AIConfig describes the conversational model.
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	HistoryLimit   int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model client from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: set ARK_API_KEY + ARK_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 20
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		HistoryLimit:   historyLimit,
	}, nil
}

// SpeechConfig describes the external ASR/TTS provider.
type SpeechConfig struct {
	AppID         string
	AccessToken   string
	APIKey        string
	BaseURL       string
	ASRModel      string
	ASRLanguage   string
	SampleRate    int
	TTSVoice      string
	TTSSpeed      float32
	TTSVolume     float32
	TTSLanguage   string
	TTSSampleRate int
	Timeout       int
	Enabled       bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	speed, err := parseOptionalFloat32Env("SPEECH_TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := float32(1.0)
	if speed != nil {
		ttsSpeed = *speed
	}

	volume, err := parseOptionalFloat32Env("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsVolume := float32(1.0)
	if volume != nil {
		ttsVolume = *volume
	}

	sampleRate := 16000
	if override, err := parseOptionalIntEnv("SPEECH_SAMPLE_RATE"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil && *override > 0 {
		sampleRate = *override
	}

	ttsSampleRate := 24000
	if override, err := parseOptionalIntEnv("SPEECH_TTS_SAMPLE_RATE"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil && *override > 0 {
		ttsSampleRate = *override
	}

	appID := strings.TrimSpace(os.Getenv("SPEECH_APP_ID"))
	accessToken := strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN"))
	apiKey := strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	if accessToken == "" {
		accessToken = apiKey
	}

	return SpeechConfig{
		AppID:         appID,
		AccessToken:   accessToken,
		APIKey:        apiKey,
		BaseURL:       getEnvOrDefault("SPEECH_BASE_URL", ""),
		ASRModel:      getEnvOrDefault("SPEECH_ASR_MODEL", "bigmodel"),
		ASRLanguage:   getEnvOrDefault("SPEECH_ASR_LANGUAGE", "en-US"),
		SampleRate:    sampleRate,
		TTSVoice:      getEnvOrDefault("SPEECH_TTS_VOICE", "en_male_glen_conversation"),
		TTSSpeed:      ttsSpeed,
		TTSVolume:     ttsVolume,
		TTSLanguage:   getEnvOrDefault("SPEECH_TTS_LANGUAGE", "en-US"),
		TTSSampleRate: ttsSampleRate,
		Timeout:       timeoutSeconds,
		Enabled:       appID != "" && accessToken != "",
	}, nil
}

// StoreConfig describes the external document store.
type StoreConfig struct {
	MongoURI string
	Database string
}

// Enabled reports whether a document store is configured.
func (c StoreConfig) Enabled() bool {
	return c.MongoURI != ""
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		MongoURI: strings.TrimSpace(os.Getenv("MONGO_URI")),
		Database: getEnvOrDefault("MONGO_DATABASE", "talxify"),
	}
}

// EventsConfig describes the Kafka turn-event publisher.
type EventsConfig struct {
	Brokers         []string
	TurnTopic       string
	AssessmentTopic string
	Enabled         bool
}

func loadEventsConfig() (EventsConfig, error) {
	enabled, err := parseBoolEnv("KAFKA_ENABLED", false)
	if err != nil {
		return EventsConfig{}, err
	}

	var brokers []string
	for _, broker := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b := strings.TrimSpace(broker); b != "" {
			brokers = append(brokers, b)
		}
	}

	return EventsConfig{
		Brokers:         brokers,
		TurnTopic:       getEnvOrDefault("KAFKA_TURN_TOPIC", "interview.turns"),
		AssessmentTopic: getEnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "interview.assessments"),
		Enabled:         enabled && len(brokers) > 0,
	}, nil
}

// LoggingConfig describes the structured logger.
type LoggingConfig struct {
	Level  string
	Format string
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}

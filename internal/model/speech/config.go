package speech

import "time"

// ProviderConfig holds credentials and defaults for the external speech
// provider. Streaming ASR and one-shot TTS share one credential set.
type ProviderConfig struct {
	AppID       string `json:"appId"`
	AccessToken string `json:"accessToken"`
	APIKey      string `json:"apiKey,omitempty"`
	BaseURL     string `json:"baseUrl"`

	// ASR settings
	ASRModel    string `json:"asrModel"`
	ASRLanguage string `json:"asrLanguage"`
	SampleRate  int    `json:"sampleRate"` // input PCM sample rate, Hz

	// TTS settings
	TTSVoice      string  `json:"ttsVoice"`
	TTSSpeed      float32 `json:"ttsSpeed"`
	TTSVolume     float32 `json:"ttsVolume"`
	TTSLanguage   string  `json:"ttsLanguage"`
	TTSSampleRate int     `json:"ttsSampleRate"` // output PCM sample rate, Hz

	Timeout int `json:"timeout"` // seconds
}

// TimeoutDuration returns the provider call timeout, defaulting to 30s when
// the field is unset.
func (c *ProviderConfig) TimeoutDuration() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

package speech

import (
	"fmt"
	"strings"

	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
)

// resolveCredentials returns the normalized app ID and access token, with a
// clear error when either is missing.
func resolveCredentials(cfg *speechmodel.ProviderConfig) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("speech provider configuration is not initialized")
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		token = strings.TrimSpace(cfg.APIKey)
	}

	if appID == "" || token == "" {
		return "", "", fmt.Errorf("speech provider configuration is missing AppID or AccessToken")
	}

	return appID, token, nil
}

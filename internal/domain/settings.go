package domain

// UserSettings holds a user's default generation parameters. A user without a
// stored record gets the deployment defaults.
type UserSettings struct {
	UserID             string  `json:"user_id"`
	DefaultService     string  `json:"default_service"`
	DefaultModel       string  `json:"default_model"`
	Temperature        float64 `json:"temperature"`
	MaxTokens          int64   `json:"max_tokens"`
	DefaultAssistantID string  `json:"default_assistant_id,omitempty"`
}

// UserSettingsPatch is a partial settings update; nil fields are left untouched.
type UserSettingsPatch struct {
	DefaultService     *string  `json:"default_service"`
	DefaultModel       *string  `json:"default_model"`
	Temperature        *float64 `json:"temperature"`
	MaxTokens          *int64   `json:"max_tokens"`
	DefaultAssistantID *string  `json:"default_assistant_id"`
}

// Apply merges non-nil patch fields into s.
func (p UserSettingsPatch) Apply(s *UserSettings) {
	if p.DefaultService != nil {
		s.DefaultService = *p.DefaultService
	}
	if p.DefaultModel != nil {
		s.DefaultModel = *p.DefaultModel
	}
	if p.Temperature != nil {
		s.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		s.MaxTokens = *p.MaxTokens
	}
	if p.DefaultAssistantID != nil {
		s.DefaultAssistantID = *p.DefaultAssistantID
	}
}

// DefaultUserSettings returns the deployment defaults for a user with no
// stored settings record.
func DefaultUserSettings(userID, service, model string, temperature float64, maxTokens int64) UserSettings {
	return UserSettings{
		UserID:         userID,
		DefaultService: service,
		DefaultModel:   model,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
	}
}

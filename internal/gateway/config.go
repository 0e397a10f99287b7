// Package gateway talks to the external AI gateway that scores job fit and
// drafts cover letters. It is the only component that holds LLM credentials.
package gateway

// ModelTier represents the capability level a call needs.
type ModelTier string

const (
	// TierStandard is for structured extraction and scoring.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form drafting.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model selection for the gateway.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierStandard: "gemini-2.0-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, empty if unconfigured.
func (c *Config) GetModel(tier ModelTier) string {
	if c == nil || c.Models == nil {
		return ""
	}
	return c.Models[tier]
}

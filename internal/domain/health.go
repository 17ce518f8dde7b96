package domain

// ErrorMessageLimit caps the stored offline reason.
const ErrorMessageLimit = 50

// Endpoint is a health-check target.
type Endpoint struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	URL         string `yaml:"url" toml:"url" json:"url"`
	Description string `yaml:"description" toml:"description" json:"description"`
}

// HealthStatus is the outcome of one probe.
type HealthStatus struct {
	Name         string
	URL          string
	Description  string
	Online       bool
	LatencyMs    int64
	ErrorMessage string
}

// StatusLabel is the value persisted in the status snapshot.
func (h HealthStatus) StatusLabel() string {
	if h.Online {
		return "online"
	}
	return "offline"
}

// DefaultEndpoints returns the Mojang endpoints probed when none are configured.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{
			Name:        "Mojang Session Server",
			URL:         "https://sessionserver.mojang.com/session/minecraft/profile/853c80ef3c3749fdaa49938b674adae6",
			Description: "Player profile & skin service",
		},
		{
			Name:        "Minecraft Services API",
			URL:         "https://api.minecraftservices.com/publickeys",
			Description: "Authentication & account service",
		},
		{
			Name:        "Mojang API",
			URL:         "https://api.mojang.com/users/profiles/minecraft/jeb_",
			Description: "Player lookup service",
		},
	}
}

// TruncateError shortens an error text to ErrorMessageLimit runes.
func TruncateError(msg string) string {
	r := []rune(msg)
	if len(r) <= ErrorMessageLimit {
		return msg
	}
	return string(r[:ErrorMessageLimit])
}

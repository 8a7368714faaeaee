package config

type MapsConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	FallbackKMH float64 `yaml:"fallback_kmh"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider:    getEnv("MAPS_PROVIDER", "google"),
		APIKey:      getEnv("GOOGLE_MAPS_API_KEY", ""),
		FallbackKMH: getEnvAsFloat64("MAPS_FALLBACK_KMH", 22),
	}
}

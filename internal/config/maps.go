package config

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
}

type GoogleMapsConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", ""),
		GoogleMaps: &GoogleMapsConfig{
			APIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			Language: getEnv("GOOGLE_MAPS_LANGUAGE", "en"),
		},
	}
}

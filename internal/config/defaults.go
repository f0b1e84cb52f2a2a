package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = SourceEmbedded
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/tsunagu/data/catalog.db"
	}
	if cfg.Locales.Dir == "" {
		cfg.Locales.Dir = "./locales"
	}
	if cfg.Locales.FragmentsDir == "" {
		cfg.Locales.FragmentsDir = "./locales/fragments"
	}
	if cfg.Locales.DefaultLocale == "" {
		cfg.Locales.DefaultLocale = "en"
	}
	if cfg.Locales.DebounceMillis == 0 {
		cfg.Locales.DebounceMillis = 400
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 3.0
	}
}

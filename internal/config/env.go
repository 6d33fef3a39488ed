package config

// Environment variables that override the config file.
const (
	EnvChannel     = "OSDASL_CHANNEL"
	EnvTheme       = "OSDASL_THEME"
	EnvNotifyTitle = "OSDASL_NOTIFY_TITLE"
)

// ApplyEnv copies non-empty overrides found through lookup into cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for name, dst := range map[string]*string{
		EnvChannel:     &cfg.Channel,
		EnvTheme:       &cfg.Theme,
		EnvNotifyTitle: &cfg.Notify.Title,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
}

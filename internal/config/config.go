package config

import "github.com/spf13/viper"

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds all runtime configuration for the session engine.
type Config struct {
	DBPath            string
	ListenPort        int
	RiskThreshold     int     // score at or above which a profile is high risk
	MaxUsesPerProfile int64   // hard rotation ceiling on use_count
	RotationThreshold float64 // ban rate above which a profile rotates
	RetentionDays     int     // age horizon for the cleanup sweep
	CleanupInterval   int     // seconds between cleanup sweeps
	PriorAlpha        float64 // Beta prior alpha for success estimation
	PriorBeta         float64 // Beta prior beta for success estimation
	QueryTimeoutMS    int     // per-call persistence deadline
	AllowedOrigins    string  // comma-separated CORS origins for the ops API
}

// Load reads configuration from viper, which merges flag values, env vars,
// and defaults (set up by the cobra command in cmd/sessiond).
func Load() Config {
	return Config{
		DBPath:            viper.GetString("db_path"),
		ListenPort:        viper.GetInt("listen_port"),
		RiskThreshold:     viper.GetInt("risk_threshold"),
		MaxUsesPerProfile: viper.GetInt64("max_uses_per_profile"),
		RotationThreshold: viper.GetFloat64("rotation_threshold"),
		RetentionDays:     viper.GetInt("retention_days"),
		CleanupInterval:   viper.GetInt("cleanup_interval"),
		PriorAlpha:        viper.GetFloat64("prior_alpha"),
		PriorBeta:         viper.GetFloat64("prior_beta"),
		QueryTimeoutMS:    viper.GetInt("query_timeout_ms"),
		AllowedOrigins:    viper.GetString("allowed_origins"),
	}
}

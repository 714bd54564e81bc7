// Package config loads daemon configuration from the environment with sane
// defaults for a single-device deployment.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/LukaGrunt/nabajk/pkg/filter"
	"github.com/LukaGrunt/nabajk/pkg/mqtt"
)

// Config is the full daemon configuration.
type Config struct {
	LogLevel string `mapstructure:"NABAJK_LOG_LEVEL"`
	DataDir  string `mapstructure:"NABAJK_DATA_DIR"`

	// Source selects the location feed: "gpsd" or "replay".
	Source        string  `mapstructure:"NABAJK_SOURCE"`
	GpsdAddr      string  `mapstructure:"NABAJK_GPSD_ADDR"`
	ReplayPath    string  `mapstructure:"NABAJK_REPLAY_PATH"`
	ReplaySpeedup float64 `mapstructure:"NABAJK_REPLAY_SPEEDUP"`

	// Defaults applied to rides saved by the daemon.
	RideName   string `mapstructure:"NABAJK_RIDE_NAME"`
	RideRegion string `mapstructure:"NABAJK_RIDE_REGION"`

	// Acceptance filter thresholds.
	FilterMaxAccuracyM   float64 `mapstructure:"NABAJK_FILTER_MAX_ACCURACY_M"`
	FilterMaxSpeedMps    float64 `mapstructure:"NABAJK_FILTER_MAX_SPEED_MPS"`
	FilterJitterDistM    float64 `mapstructure:"NABAJK_FILTER_JITTER_DIST_M"`
	FilterJitterInterval float64 `mapstructure:"NABAJK_FILTER_JITTER_INTERVAL_S"`

	// Live telemetry publishing.
	MQTTEnabled     bool   `mapstructure:"NABAJK_MQTT_ENABLED"`
	MQTTBroker      string `mapstructure:"NABAJK_MQTT_BROKER"`
	MQTTPort        int    `mapstructure:"NABAJK_MQTT_PORT"`
	MQTTClientID    string `mapstructure:"NABAJK_MQTT_CLIENT_ID"`
	MQTTUsername    string `mapstructure:"NABAJK_MQTT_USERNAME"`
	MQTTPassword    string `mapstructure:"NABAJK_MQTT_PASSWORD"`
	MQTTTopicPrefix string `mapstructure:"NABAJK_MQTT_TOPIC_PREFIX"`
	MQTTQoS         int    `mapstructure:"NABAJK_MQTT_QOS"`
}

// Load reads configuration from the environment, filling defaults.
func Load() Config {
	viper.AutomaticEnv()

	defaults := filter.DefaultConfig()
	mqttDefaults := mqtt.DefaultConfig()

	viper.SetDefault("NABAJK_LOG_LEVEL", "info")
	viper.SetDefault("NABAJK_DATA_DIR", "/var/lib/nabajk")
	viper.SetDefault("NABAJK_SOURCE", "gpsd")
	viper.SetDefault("NABAJK_GPSD_ADDR", "localhost:2947")
	viper.SetDefault("NABAJK_REPLAY_PATH", "")
	viper.SetDefault("NABAJK_REPLAY_SPEEDUP", 0.0)
	viper.SetDefault("NABAJK_RIDE_NAME", "Recorded ride")
	viper.SetDefault("NABAJK_RIDE_REGION", "")
	viper.SetDefault("NABAJK_FILTER_MAX_ACCURACY_M", defaults.MaxAccuracyMeters)
	viper.SetDefault("NABAJK_FILTER_MAX_SPEED_MPS", defaults.MaxSpeedMps)
	viper.SetDefault("NABAJK_FILTER_JITTER_DIST_M", defaults.JitterDistanceMeters)
	viper.SetDefault("NABAJK_FILTER_JITTER_INTERVAL_S", defaults.JitterIntervalSeconds)
	viper.SetDefault("NABAJK_MQTT_ENABLED", mqttDefaults.Enabled)
	viper.SetDefault("NABAJK_MQTT_BROKER", mqttDefaults.Broker)
	viper.SetDefault("NABAJK_MQTT_PORT", mqttDefaults.Port)
	viper.SetDefault("NABAJK_MQTT_CLIENT_ID", mqttDefaults.ClientID)
	viper.SetDefault("NABAJK_MQTT_USERNAME", "")
	viper.SetDefault("NABAJK_MQTT_PASSWORD", "")
	viper.SetDefault("NABAJK_MQTT_TOPIC_PREFIX", mqttDefaults.TopicPrefix)
	viper.SetDefault("NABAJK_MQTT_QOS", mqttDefaults.QoS)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}

// DBPath returns the ride database location under the data dir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "rides.db")
}

// GPXDir returns the GPX export directory under the data dir.
func (c Config) GPXDir() string {
	return filepath.Join(c.DataDir, "gpx")
}

// FilterConfig maps the flat settings onto filter thresholds.
func (c Config) FilterConfig() *filter.Config {
	return &filter.Config{
		MaxAccuracyMeters:     c.FilterMaxAccuracyM,
		MaxSpeedMps:           c.FilterMaxSpeedMps,
		JitterDistanceMeters:  c.FilterJitterDistM,
		JitterIntervalSeconds: c.FilterJitterInterval,
	}
}

// MQTTConfig maps the flat settings onto the publisher configuration.
func (c Config) MQTTConfig() *mqtt.Config {
	return &mqtt.Config{
		Enabled:     c.MQTTEnabled,
		Broker:      c.MQTTBroker,
		Port:        c.MQTTPort,
		ClientID:    c.MQTTClientID,
		Username:    c.MQTTUsername,
		Password:    c.MQTTPassword,
		TopicPrefix: c.MQTTTopicPrefix,
		QoS:         c.MQTTQoS,
	}
}

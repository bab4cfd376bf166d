package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"ecohub/internal/climate"
	"ecohub/internal/logging"
)

var cfgFile string

type JobsConfig struct {
	Climate  time.Duration
	Tips     time.Duration
	Notify   time.Duration
	Reminder time.Duration
}

type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	Climate       climate.Config
	Jobs          JobsConfig
	AuthSecret    string
	AdminEmail    string
	AdminPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db", "./ecohub.db")
	v.SetDefault("loglevel", "info")

	v.SetDefault("climate.url", climate.DefaultURL)
	v.SetDefault("climate.timeout", 10*time.Second)
	v.SetDefault("climate.retries", 2)

	v.SetDefault("jobs.climate", time.Hour)
	v.SetDefault("jobs.tips", 5*time.Minute)
	v.SetDefault("jobs.notify", 15*time.Minute)
	v.SetDefault("jobs.reminder", 24*time.Hour)

	v.SetDefault("auth.secret", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			logging.Log.WithError(err).Warn("Cannot locate home directory")
		} else {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".ecohub")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ecohub")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logging.Log.WithError(err).Warn("Error reading config file")
		}
	} else {
		logging.Log.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}

	if err := logging.SetLevel(viper.GetString("loglevel")); err != nil {
		logging.Log.WithError(err).Warn("Keeping default log level")
	}
}

// loadConfig snapshots v. An empty auth secret is replaced by a random one,
// so admin sessions do not survive a restart.
func loadConfig(v *viper.Viper) Config {
	cfg := Config{
		Port:     v.GetInt("port"),
		DBPath:   v.GetString("db"),
		LogLevel: v.GetString("loglevel"),
		Climate: climate.Config{
			URL:     v.GetString("climate.url"),
			Timeout: v.GetDuration("climate.timeout"),
			Retries: v.GetInt("climate.retries"),
		},
		Jobs: JobsConfig{
			Climate:  v.GetDuration("jobs.climate"),
			Tips:     v.GetDuration("jobs.tips"),
			Notify:   v.GetDuration("jobs.notify"),
			Reminder: v.GetDuration("jobs.reminder"),
		},
		AuthSecret:    v.GetString("auth.secret"),
		AdminEmail:    v.GetString("admin.email"),
		AdminPassword: v.GetString("admin.password"),
	}

	if cfg.AuthSecret == "" {
		cfg.AuthSecret = uuid.NewString()
		logging.Log.Debug("No auth.secret configured, using a random one")
	}
	return cfg
}

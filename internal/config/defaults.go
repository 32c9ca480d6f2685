// Package config provides configuration loading and defaults for clientdash.
package config

import "time"

// DefaultConfigDir is the default location for clientdash configuration.
const DefaultConfigDir = "~/.config/clientdash"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultEnvFile is loaded into the environment before the config is read,
// when present in the working directory.
const DefaultEnvFile = ".env"

// EnvPrefix prefixes every environment override, e.g. CLIENTDASH_SOURCE_URL.
const EnvPrefix = "CLIENTDASH"

// DefaultWebhookURL is the assistant webhook used when none is configured.
const DefaultWebhookURL = "http://localhost:5678/webhook/Dashboard"

const (
	DefaultFetchTimeout    = 15 * time.Second
	DefaultWebhookTimeout  = 30 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
)

// DefaultPageSize is the number of records per page in record listings.
const DefaultPageSize = 10

// DefaultRevenue holds the revenue chart defaults. Target values are
// Baseline + index*Increment and are synthetic.
var DefaultRevenue = Revenue{
	Periods:   6,
	Baseline:  45000,
	Increment: 2000,
}

// DefaultServer holds the HTTP API defaults.
var DefaultServer = Server{
	Addr: "127.0.0.1:8787",
}

// DefaultLog holds the logging defaults. An empty File disables the rotated
// log file.
var DefaultLog = Log{
	Level:      "info",
	MaxSizeMB:  10,
	MaxBackups: 3,
	MaxAgeDays: 28,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

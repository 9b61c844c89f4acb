package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/flagx"
	"github.com/dmitrijs2005/subscribers/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "168h" and integer nanoseconds are accepted.
// Absent or zero-valued fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	PasswordHashAlgorithm        string         `json:"password_hash_algorithm"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	DBMaxOpenConns               int            `json:"db_max_open_conns"`
	DBMaxIdleConns               int            `json:"db_max_idle_conns"`
	PoolAcquireTimeout           timex.Duration `json:"pool_acquire_timeout"`
	DBConnectAttempts            int            `json:"db_connect_attempts"`
	DBConnectBackoff             timex.Duration `json:"db_connect_backoff"`
	ReferralCodeAttempts         int            `json:"referral_code_attempts"`
	AuthRateLimitRPS             float64        `json:"auth_rate_limit_rps"`
	AuthRateLimitBurst           int            `json:"auth_rate_limit_burst"`
	AdminName                    string         `json:"admin_name"`
	AdminEmail                   string         `json:"admin_email"`
	AdminPassword                string         `json:"admin_password"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson loads the file named by -c / -config, if any, and overlays it
// onto config. An unreadable file or invalid JSON panics: a config file that
// was asked for and cannot be used is a startup error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.DBMaxOpenConns, c.DBMaxOpenConns)
	setInt(&config.DBMaxIdleConns, c.DBMaxIdleConns)
	setDuration(&config.PoolAcquireTimeout, c.PoolAcquireTimeout)
	setInt(&config.DBConnectAttempts, c.DBConnectAttempts)
	setDuration(&config.DBConnectBackoff, c.DBConnectBackoff)
	setInt(&config.ReferralCodeAttempts, c.ReferralCodeAttempts)
	if c.AuthRateLimitRPS > 0 {
		config.AuthRateLimitRPS = c.AuthRateLimitRPS
	}
	setInt(&config.AuthRateLimitBurst, c.AuthRateLimitBurst)
	setString(&config.AdminName, c.AdminName)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

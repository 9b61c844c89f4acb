package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every environment variable read by the server.
const envPrefix = "SUBSCRIBERS_"

type lookupFunc func(key string) (string, bool)

// parseEnv overlays SUBSCRIBERS_* environment variables onto config. A .env
// file in the working directory is loaded first when present; variables that
// are already set in the process environment win over the file.
// Malformed numbers and durations are ignored and the previous value kept.
func parseEnv(config *Config, lookup lookupFunc) {
	_ = godotenv.Load()

	envString(lookup, "HTTP_ADDR", &config.EndpointAddrHTTP)
	envString(lookup, "DATABASE_DSN", &config.DatabaseDSN)
	envString(lookup, "SECRET_KEY", &config.SecretKey)
	envDuration(lookup, "ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	envDuration(lookup, "REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	envString(lookup, "PASSWORD_HASH_ALGORITHM", &config.PasswordHashAlgorithm)
	envInt(lookup, "BCRYPT_COST", &config.BcryptCost)
	envInt(lookup, "DB_MAX_OPEN_CONNS", &config.DBMaxOpenConns)
	envInt(lookup, "DB_MAX_IDLE_CONNS", &config.DBMaxIdleConns)
	envDuration(lookup, "POOL_ACQUIRE_TIMEOUT", &config.PoolAcquireTimeout)
	envInt(lookup, "DB_CONNECT_ATTEMPTS", &config.DBConnectAttempts)
	envDuration(lookup, "DB_CONNECT_BACKOFF", &config.DBConnectBackoff)
	envInt(lookup, "REFERRAL_CODE_ATTEMPTS", &config.ReferralCodeAttempts)
	envFloat(lookup, "AUTH_RATE_LIMIT_RPS", &config.AuthRateLimitRPS)
	envInt(lookup, "AUTH_RATE_LIMIT_BURST", &config.AuthRateLimitBurst)
	envString(lookup, "ADMIN_NAME", &config.AdminName)
	envString(lookup, "ADMIN_EMAIL", &config.AdminEmail)
	envString(lookup, "ADMIN_PASSWORD", &config.AdminPassword)
	envString(lookup, "LOG_FORMAT", &config.LogFormat)
}

func envValue(lookup lookupFunc, key string) (string, bool) {
	v, ok := lookup(envPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envString(lookup lookupFunc, key string, dst *string) {
	if v, ok := envValue(lookup, key); ok {
		*dst = v
	}
}

func envInt(lookup lookupFunc, key string, dst *int) {
	if v, ok := envValue(lookup, key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(lookup lookupFunc, key string, dst *float64) {
	if v, ok := envValue(lookup, key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(lookup lookupFunc, key string, dst *time.Duration) {
	if v, ok := envValue(lookup, key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

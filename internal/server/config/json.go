package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vidtube/internal/flagx"
	"github.com/dmitrijs2005/vidtube/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from a zero value so a partial file only overrides what it
// names. Durations accept "15m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP               *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC               *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                    *string         `json:"database_dsn"`
	AccessTokenSecret              *string         `json:"access_token_secret"`
	RefreshTokenSecret             *string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration    *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration   *timex.Duration `json:"refresh_token_validity_duration"`
	PasswordHashAlgorithm          *string         `json:"password_hash_algorithm"`
	RevokeSessionsOnPasswordChange *bool           `json:"revoke_sessions_on_password_change"`
	CookieSecure                   *bool           `json:"cookie_secure"`
	UploadDir                      *string         `json:"upload_dir"`
	MaxUploadBytes                 *int64          `json:"max_upload_bytes"`
	S3RootUser                     *string         `json:"s3_root_user"`
	S3RootPassword                 *string         `json:"s3_root_password"`
	S3Bucket                       *string         `json:"s3_bucket"`
	S3Region                       *string         `json:"s3_region"`
	S3BaseEndpoint                 *string         `json:"s3_base_endpoint"`
	RateLimitRedisAddr             *string         `json:"rate_limit_redis_addr"`
	RateLimitRedisPassword         *string         `json:"rate_limit_redis_password"`
	RateLimitRedisDB               *int            `json:"rate_limit_redis_db"`
	LogLevel                       *string         `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing is loaded. Unreadable files and invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

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

	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.AccessTokenSecret, c.AccessTokenSecret)
	set(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	set(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	set(&config.RevokeSessionsOnPasswordChange, c.RevokeSessionsOnPasswordChange)
	set(&config.CookieSecure, c.CookieSecure)
	set(&config.UploadDir, c.UploadDir)
	set(&config.MaxUploadBytes, c.MaxUploadBytes)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.RateLimitRedisAddr, c.RateLimitRedisAddr)
	set(&config.RateLimitRedisPassword, c.RateLimitRedisPassword)
	set(&config.RateLimitRedisDB, c.RateLimitRedisDB)
	set(&config.LogLevel, c.LogLevel)
}

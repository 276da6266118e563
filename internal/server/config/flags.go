package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/vidtube/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8000")
//	-g string     gRPC health bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-t duration   access token validity (e.g., "15m")
//	-r duration   refresh token validity (e.g., "240h")
//	-hash string  password hash algorithm (bcrypt, argon2id)
//	-b string     S3 bucket name
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-redis string Redis address for the rate limiter
//	-l string     log level
//
// Secrets are deliberately not accepted as flags; use the JSON file or the
// environment. os.Args is filtered with flagx.FilterArgs first so the -c
// config flag does not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], "a", "g", "d", "t", "r", "hash", "b", "e", "redis", "l")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&config.PasswordHashAlgorithm, "hash", config.PasswordHashAlgorithm, "password hash algorithm")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.RateLimitRedisAddr, "redis", config.RateLimitRedisAddr, "Redis address for rate limiting")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

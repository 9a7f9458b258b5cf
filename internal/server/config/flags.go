package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/flagx"
)

var ownFlags = []string{"-a", "-r", "-d", "-s", "-t", "-k", "-m", "-i", "-o", "-u", "-p", "-b", "-g", "-e", "-q", "-l"}

// parseFlags overlays Config with the short flags it owns.
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-r string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   Gemini API key
//	-m string   Gemini model name
//	-i int      AI call timeout, seconds
//	-o string   comma separated CORS origins
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-q string   RabbitMQ URL
//	-l string   log level
//
// Other flags in args (such as -c) are ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "r", config.EndpointAddrGRPC, "address and port to run the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.GeminiAPIKey, "k", config.GeminiAPIKey, "Gemini API key")
	fs.StringVar(&config.GeminiModel, "m", config.GeminiModel, "Gemini model")
	aiTimeoutSeconds := fs.Int("i", int(config.AITimeout.Seconds()), "AI call timeout (in seconds)")
	corsOrigins := fs.String("o", strings.Join(config.CORSOrigins, ","), "allowed CORS origins, comma separated")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.RabbitMQURL, "q", config.RabbitMQURL, "RabbitMQ URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *accessTokenMinutes <= 0 {
		return fmt.Errorf("-t: token validity must be positive, got %d", *accessTokenMinutes)
	}
	if *aiTimeoutSeconds <= 0 {
		return fmt.Errorf("-i: AI timeout must be positive, got %d", *aiTimeoutSeconds)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenMinutes) * time.Minute
	config.AITimeout = time.Duration(*aiTimeoutSeconds) * time.Second
	config.CORSOrigins = flagx.SplitList(*corsOrigins)
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotEnv copies variables from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays Config with environment variables found via lookup.
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_URL, SECRET_KEY,
//	ACCESS_TOKEN_EXPIRE_MINUTES (int), GEMINI_API_KEY, GEMINI_MODEL,
//	AI_TIMEOUT_SECONDS (int), CORS_ORIGINS (comma list),
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	RABBITMQ_URL, LOG_LEVEL
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.EndpointAddrHTTP)
	str("GRPC_ADDR", &c.EndpointAddrGRPC)
	str("DATABASE_URL", &c.DatabaseDSN)
	str("SECRET_KEY", &c.SecretKey)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_MODEL", &c.GeminiModel)
	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	str("RABBITMQ_URL", &c.RabbitMQURL)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = flagx.SplitList(v)
	}

	if err := envDuration(lookup, "ACCESS_TOKEN_EXPIRE_MINUTES", time.Minute, &c.AccessTokenValidityDuration); err != nil {
		return err
	}
	return envDuration(lookup, "AI_TIMEOUT_SECONDS", time.Second, &c.AITimeout)
}

func envDuration(lookup func(string) (string, bool), key string, unit time.Duration, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	*dst = time.Duration(n) * unit
	return nil
}

package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/pg"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/pkg/errors"
)

// Config holds every value the processes read from the environment.
// It is loaded once in main and handed to the constructors that need it;
// nothing else in the module reads the environment directly.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=smartcart"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:5000"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`
	HttpReadTimeout    time.Duration `env:"HTTP_SERVER_READ_TIMEOUT,default=2500ms"`
	HttpWriteTimeout   time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT,default=2500ms"`
	CorsAllowOrigin    string        `env:"CORS_ALLOW_ORIGIN,default=*"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST,default=localhost"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME,default=smartcart"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST,default=localhost"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME,default=smartcart"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=smartcart:"`

	FeedStream            string        `env:"FEED_STREAM,default=register:feed"`
	FeedConsumerGroup     string        `env:"FEED_CONSUMER_GROUP,default=relay"`
	FeedConsumerName      string        `env:"FEED_CONSUMER_NAME"`
	FeedMaxRetries        int           `env:"FEED_MAX_RETRIES,default=5"`
	FeedVisibilityTimeout time.Duration `env:"FEED_VISIBILITY_TIMEOUT,default=30s"`
	FeedPollInterval      time.Duration `env:"FEED_POLL_INTERVAL,default=500ms"`
	FeedBatchSize         int64         `env:"FEED_BATCH_SIZE,default=50"`
	FeedMaxLen            int64         `env:"FEED_MAX_LEN,default=100000"`
	FeedEnableDLQ         bool          `env:"FEED_ENABLE_DLQ,default=true"`

	PromNamespace     string `env:"PROM_NAMESPACE,default=smartcart"`
	MetricsListenAddr string `env:"METRICS_LISTEN_ADDR"`

	LogEnv   string `env:"LOG_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	CashIntentTTL           time.Duration `env:"CASH_INTENT_TTL,default=15m"`
	CashierCodeLength       int           `env:"CASHIER_CODE_LENGTH,default=6"`
	CashIntentSweepInterval time.Duration `env:"CASH_INTENT_SWEEP_INTERVAL,default=0s"`

	TerminalURL        string        `env:"TERMINAL_URL,default=http://localhost:8081"`
	TerminalTimeout    time.Duration `env:"TERMINAL_TIMEOUT,default=3s"`
	TerminalMaxRetries int           `env:"TERMINAL_MAX_RETRIES,default=2"`
	RelayWorkers       int           `env:"RELAY_WORKERS,default=8"`
}

// Load reads the optional env file at path into the process environment
// and maps the environment onto a fresh Config.
func Load(path string) (*Config, error) {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return nil, errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.HttpListenAddr == "" {
		return errors.New("HTTP_LISTEN_ADDR must be set")
	}
	if c.CashIntentTTL <= 0 {
		return errors.New("CASH_INTENT_TTL must be positive")
	}
	if c.CashierCodeLength < 4 || c.CashierCodeLength > 32 {
		return errors.Errorf("CASHIER_CODE_LENGTH must be between 4 and 32, got %d", c.CashierCodeLength)
	}
	if c.CashIntentSweepInterval < 0 {
		return errors.New("CASH_INTENT_SWEEP_INTERVAL cannot be negative")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func (c *Config) ReadDB() pg.Config {
	return pg.Config{
		User:     c.PostgresReadUser,
		Host:     c.PostgresReadHost,
		Port:     c.PostgresReadPort,
		Password: c.PostgresReadPassword,
		Database: c.PostgresReadDatabase,
	}
}

func (c *Config) WriteDB() pg.Config {
	return pg.Config{
		User:     c.PostgresWriteUser,
		Host:     c.PostgresWriteHost,
		Port:     c.PostgresWritePort,
		Password: c.PostgresWritePassword,
		Database: c.PostgresWriteDatabase,
	}
}

func (c *Config) Redis(clientName string) *redis.Options {
	return &redis.Options{
		Addrs:      []string{c.RedisAddr},
		ClientName: clientName,
		DB:         c.RedisDatabase,
		Username:   c.RedisUsername,
		Password:   c.RedisPassword,
	}
}

func (c *Config) Feed() feed.Config {
	return feed.Config{
		Stream:            c.FeedStream,
		ConsumerGroup:     c.FeedConsumerGroup,
		ConsumerName:      c.FeedConsumerName,
		MaxRetries:        c.FeedMaxRetries,
		VisibilityTimeout: c.FeedVisibilityTimeout,
		PollInterval:      c.FeedPollInterval,
		BatchSize:         c.FeedBatchSize,
		MaxLen:            c.FeedMaxLen,
		EnableDLQ:         c.FeedEnableDLQ,
	}
}

// ArgValue returns the value of a --name=value argument, or "".
func ArgValue(args []string, name string) string {
	prefix := "--" + name + "="
	for _, v := range args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return ""
}

// EnvPathFromArgs returns the --env file path when it exists.
func EnvPathFromArgs(args []string) string {
	path := ArgValue(args, "env")
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logger.Error("failed to open the passed env file", "path", path, "error", err)
		return ""
	}
	return path
}

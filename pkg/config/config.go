// Package config loads and validates pipeline configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// stage (Input, Cleaning, Text, Vocabulary, Split) and every sink.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level pipeline configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Cleaning   CleaningConfig   `yaml:"cleaning"`
	Text       TextConfig       `yaml:"text"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Split      SplitConfig      `yaml:"split"`
	Output     OutputConfig     `yaml:"output"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InputConfig describes the delimited review file.
type InputConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// CleaningConfig controls the loader's filter and subsample.
type CleaningConfig struct {
	MinABV     float64 `yaml:"minABV"`
	SampleSize int     `yaml:"sampleSize"`
	Seed       uint64  `yaml:"seed"`
}

// TextConfig controls tokenisation and stopword removal.
type TextConfig struct {
	// Stopwords is either "english" for the built-in list, "none", or a path
	// to a newline-separated word file.
	Stopwords      string   `yaml:"stopwords"`
	ExtraStopwords []string `yaml:"extraStopwords"`
	MinTokenLength int      `yaml:"minTokenLength"`
}

// VocabularyConfig controls the minimum document-frequency filter.
type VocabularyConfig struct {
	MinDocFreq int `yaml:"minDocFreq"`
}

// SplitConfig controls the stratified train/test partition. A nil Seed
// inherits Cleaning.Seed; an explicit 0 is a valid seed.
type SplitConfig struct {
	TrainFraction float64 `yaml:"trainFraction"`
	Strata        int     `yaml:"strata"`
	Seed          *uint64 `yaml:"seed"`
}

// OutputConfig names local artefacts. Empty paths disable the sink.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	MatrixFile string `yaml:"matrixFile"`
	CSV        string `yaml:"csv"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name. Values are quoted so
// passwords may contain spaces, quotes or backslashes.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnQuote(p.Host), p.Port, dsnQuote(p.User), dsnQuote(p.Password), dsnQuote(p.Database), dsnQuote(p.SSLMode),
	)
}

func dsnQuote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	FeatureRows string `yaml:"featureRows"`
	RunComplete string `yaml:"runComplete"`
}

// RedisConfig holds Redis connection parameters and the feature TTL.
type RedisConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"poolSize"`
	FeatureTTL time.Duration `yaml:"featureTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, or an error if the result does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the reference settings: ABV above 3.0, 1000 sampled
// reviews, tokens in at least 100 documents and an 80/20 split.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter: ",",
		},
		Cleaning: CleaningConfig{
			MinABV:     3.0,
			SampleSize: 1000,
			Seed:       1,
		},
		Text: TextConfig{
			Stopwords:      "english",
			MinTokenLength: 1,
		},
		Vocabulary: VocabularyConfig{
			MinDocFreq: 100,
		},
		Split: SplitConfig{
			TrainFraction: 0.8,
			Strata:        5,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "beerreviews",
			User:            "beerreviews",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				FeatureRows: "review-features",
				RunComplete: "review-features.complete",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			FeatureTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate rejects configurations no stage could run with.
func (c *Config) Validate() error {
	var problems []string
	if len([]rune(c.Input.Delimiter)) != 1 {
		problems = append(problems, "input.delimiter must be a single character")
	}
	if c.Cleaning.SampleSize <= 0 {
		problems = append(problems, "cleaning.sampleSize must be positive")
	}
	if c.Vocabulary.MinDocFreq <= 0 {
		problems = append(problems, "vocabulary.minDocFreq must be positive")
	}
	if c.Split.TrainFraction <= 0 || c.Split.TrainFraction >= 1 {
		problems = append(problems, "split.trainFraction must be in (0, 1)")
	}
	if c.Split.Strata < 2 {
		problems = append(problems, "split.strata must be at least 2")
	}
	if c.Text.MinTokenLength < 1 {
		problems = append(problems, "text.minTokenLength must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SplitSeed returns the seed for the stratified split.
func (c *Config) SplitSeed() uint64 {
	if c.Split.Seed != nil {
		return *c.Split.Seed
	}
	return c.Cleaning.Seed
}

// applyEnvOverrides reads BRF_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRF_INPUT_PATH"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("BRF_CLEANING_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Cleaning.Seed = seed
		}
	}
	if v := os.Getenv("BRF_CLEANING_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cleaning.SampleSize = n
		}
	}
	if v := os.Getenv("BRF_VOCABULARY_MIN_DOC_FREQ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vocabulary.MinDocFreq = n
		}
	}
	if v := os.Getenv("BRF_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("BRF_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BRF_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BRF_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BRF_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BRF_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BRF_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BRF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BRF_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BRF_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BRF_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hh-screener"
)

type Config struct {
	Provider  string            `mapstructure:"provider"`
	Gemini    *GeminiConfig     `mapstructure:"gemini"`
	OpenAI    *OpenAIConfig     `mapstructure:"openai"`
	Questions *QuestionsConfig  `mapstructure:"questions"`
	Screening *ScreeningConfig  `mapstructure:"screening"`
	Store     *StoreConfig      `mapstructure:"store"`
	Templates map[string]string `mapstructure:"templates"`
	Listen    string            `mapstructure:"listen"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type QuestionsConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	PerTechnology int           `mapstructure:"per-technology"`
	Max           int           `mapstructure:"max"`
	BankFile      string        `mapstructure:"bank-file"`
}

type ScreeningConfig struct {
	RetryCap    int           `mapstructure:"retry-cap"`
	EndKeywords []string      `mapstructure:"end-keywords"`
	Checkpoint  bool          `mapstructure:"checkpoint"`
	SaveTimeout time.Duration `mapstructure:"save-timeout"`
}

type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	Redis   *RedisConfig  `mapstructure:"redis"`
	SQLite  *SQLiteConfig `mapstructure:"sqlite"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	PasswordFile string        `mapstructure:"password-file"`
	DB           int           `mapstructure:"db"`
	Prefix       string        `mapstructure:"prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-screener runs conversational candidate screenings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	envs := map[string]string{
		"gemini.api-key":      "GEMINI_API_KEY",
		"gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"store.redis.addr":    "REDIS_ADDR",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetEnvPrefix("HH_SCREENER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("provider", "gemini")
	viper.SetDefault("gemini.api-key", "")
	viper.SetDefault("gemini.api-key-file", "")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")
	viper.SetDefault("gemini.max-retries", 3)
	viper.SetDefault("openai.api-key", "")
	viper.SetDefault("openai.api-key-file", "")
	viper.SetDefault("openai.base-url", "")
	viper.SetDefault("openai.model", "gpt-4.1")
	viper.SetDefault("openai.max-retries", 2)
	viper.SetDefault("questions.timeout", "20s")
	viper.SetDefault("questions.per-technology", 2)
	viper.SetDefault("questions.max", 6)
	viper.SetDefault("questions.bank-file", "")
	viper.SetDefault("screening.retry-cap", 3)
	viper.SetDefault("screening.end-keywords", []string{"bye", "goodbye", "exit", "quit", "stop"})
	viper.SetDefault("screening.checkpoint", false)
	viper.SetDefault("screening.save-timeout", "5s")
	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.redis.addr", "localhost:6379")
	viper.SetDefault("store.redis.password", "")
	viper.SetDefault("store.redis.password-file", "")
	viper.SetDefault("store.redis.db", 0)
	viper.SetDefault("store.redis.prefix", "screening:session:")
	viper.SetDefault("store.redis.ttl", "720h")
	viper.SetDefault("store.sqlite.path", app+".db")
	viper.SetDefault("listen", ":8080")
}

func initConfig() {
	// Secrets may live in a .env file next to the binary.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless given explicitly.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "placement-matcher"
)

type Config struct {
	// Data is a path to a json/yaml/toml document or an http(s) url.
	Data        string         `mapstructure:"data" validate:"required"`
	Now         string         `mapstructure:"now"`
	ExcludeFile string         `mapstructure:"exclude-file"`
	MetricsFile string         `mapstructure:"metrics-file"`
	UserAgent   string         `mapstructure:"user-agent"`
	Scoring     *ScoringConfig `mapstructure:"scoring"`
	Ranking     *RankingConfig `mapstructure:"ranking"`
	Exclude     *struct {
		Candidates []string `mapstructure:"candidates"`
		Accounts   []string `mapstructure:"accounts"`
	} `mapstructure:"exclude"`
	AI *AIConfig `mapstructure:"ai"`
}

type ScoringConfig struct {
	ConfidenceDefault *float64 `mapstructure:"confidence-default" validate:"omitempty,min=0,max=15"`
	ReadinessDefault  *float64 `mapstructure:"readiness-default" validate:"omitempty,min=0,max=10"`
	BonusKeywords     []string `mapstructure:"bonus-keywords"`
	BonusFields       []string `mapstructure:"bonus-fields"`
}

type RankingConfig struct {
	Top          int `mapstructure:"top" validate:"min=0"`
	PerCandidate int `mapstructure:"per-candidate" validate:"min=0"`
}

type AIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Provider   string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	ExplainTop int           `mapstructure:"explain-top" validate:"min=0"`
	Gemini     *GeminiConfig `mapstructure:"gemini" validate:"required_if=Enabled true"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"min=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"min=0"`
	Tone         string `mapstructure:"tone"`
	Focus        string `mapstructure:"focus"`
	Instructions string `mapstructure:"instructions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "placement-matcher scores training candidates against open job requisitions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if err := viper.BindEnv("data", "PM_DATA"); err != nil {
		log.Fatalf("binding PM_DATA environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is placement-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// Everything can come from flags and env, so a missing default file is fine.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}

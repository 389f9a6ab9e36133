package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/ranking"
	"github.com/spigell/ats-scorer/internal/scoring"
	"github.com/spigell/ats-scorer/internal/sections"
)

const (
	app       = "ats-scorer"
	envPrefix = "ATS"
)

type Config struct {
	Scoring     scoring.Config      `mapstructure:"scoring"`
	Vocabulary  sections.Vocabulary `mapstructure:"vocabulary"`
	Thesaurus   ThesaurusConfig     `mapstructure:"thesaurus"`
	Rank        RankConfig          `mapstructure:"rank"`
	History     HistoryConfig       `mapstructure:"history"`
	Server      ServerConfig        `mapstructure:"server"`
	HH          HHConfig            `mapstructure:"hh"`
	AI          *AIConfig           `mapstructure:"ai"`
	ExcludeFile string              `mapstructure:"exclude-file"`
}

type ThesaurusConfig struct {
	// UseDefault loads the embedded synonym groups before Files.
	UseDefault bool     `mapstructure:"use-default"`
	Files      []string `mapstructure:"files"`
	StemLemmas bool     `mapstructure:"stem-lemmas"`
}

type RankConfig struct {
	Workers  int     `mapstructure:"workers"`
	MinScore float64 `mapstructure:"min-score"`
	Top      int     `mapstructure:"top"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type HHConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

type AIConfig struct {
	Provider   string        `mapstructure:"provider"`
	MaxSynsets int           `mapstructure:"max-synsets"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-scorer rates how well a résumé matches a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file with environment overrides, skipped when missing")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	sc := scoring.DefaultConfig()
	v.SetDefault("scoring.tfidf-weight", sc.TFIDFWeight)
	v.SetDefault("scoring.keyword-weight", sc.KeywordWeight)
	v.SetDefault("scoring.preview-length", sc.PreviewLength)

	vocab := sections.DefaultVocabulary()
	v.SetDefault("vocabulary.relevant-headings", vocab.RelevantHeadings)
	v.SetDefault("vocabulary.irrelevant-headings", vocab.IrrelevantHeadings)
	v.SetDefault("vocabulary.key-term-patterns", vocab.KeyTermPatterns)
	v.SetDefault("vocabulary.rescue-key-terms", vocab.RescueKeyTerms)
	v.SetDefault("vocabulary.heading-tolerance", vocab.HeadingTolerance)

	v.SetDefault("thesaurus.use-default", true)
	v.SetDefault("thesaurus.files", []string{})
	v.SetDefault("thesaurus.stem-lemmas", true)

	v.SetDefault("rank.workers", ranking.DefaultWorkers)
	v.SetDefault("rank.min-score", 0)
	v.SetDefault("rank.top", 0)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "ats-scorer.db")

	v.SetDefault("server.listen", ":8080")

	v.SetDefault("hh.token", "")
	v.SetDefault("hh.token-file", "")
	v.SetDefault("hh.user-agent", "")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.max-synsets", 30)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("exclude-file", "")
}

func initConfig() {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", envFile, err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("hh.token-file", "HH_TOKEN_FILE", envPrefix+"_HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE", envPrefix+"_AI_GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless it was named explicitly.
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

	return config, nil
}

// setup builds the logger and the validated config for a command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-file"),
		App:    app,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	if err := config.Scoring.Validate(); err != nil {
		logger.Fatal("invalid scoring config", zap.Error(err))
	}

	logger.Debug("config loaded", zap.String("file", viper.ConfigFileUsed()))
	return logger, config
}

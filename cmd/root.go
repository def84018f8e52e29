package cmd

import (
	"log"

	"github.com/sharphuman/hr-passive-cv/internal/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hr-passive-cv"
)

type Config struct {
	Job         *JobConfig    `mapstructure:"job"`
	Search      *SearchConfig `mapstructure:"search"`
	Report      *ReportConfig `mapstructure:"report"`
	Email       *EmailConfig  `mapstructure:"email"`
	AI          *AIConfig     `mapstructure:"ai"`
	ExcludeFile string        `mapstructure:"exclude-file"`
}

type JobConfig struct {
	Description     string `mapstructure:"description"`
	DescriptionFile string `mapstructure:"description-file"`
	Location        string `mapstructure:"location"`
	WorkStyle       string `mapstructure:"work-style"`
}

type SearchConfig struct {
	APIKeyFile           string   `mapstructure:"api-key-file"`
	EngineID             string   `mapstructure:"engine-id"`
	ResultsPerQuery      int      `mapstructure:"results-per-query"`
	Denylist             []string `mapstructure:"denylist"`
	ExcludeDomains       []string `mapstructure:"exclude-domains"`
	RetryWithoutLocation bool     `mapstructure:"retry-without-location"`
}

type ReportConfig struct {
	MinScore  int    `mapstructure:"min-score"`
	ArchiveDB string `mapstructure:"archive-db"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	To           string `mapstructure:"to"`
	From         string `mapstructure:"from"`
	SMTPHost     string `mapstructure:"smtp-host"`
	SMTPPort     int    `mapstructure:"smtp-port"`
	PasswordFile string `mapstructure:"password-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hr-passive-cv is a cli for sourcing passive candidates from web search and scoring them against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("search.api-key-file", "GOOGLE_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GOOGLE_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("email.password-file", "SMTP_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding SMTP_PASSWORD_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hr-passive-cv.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("search.retry-without-location", true)
	viper.SetDefault("report.min-score", report.DefaultMinScore)
	viper.SetDefault("report.archive-db", app+".db")
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
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
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

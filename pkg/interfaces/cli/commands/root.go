// Package commands implements the prodplan command line.
package commands

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsinha/prodplan/pkg/infrastructure/config"
)

// Version is reported by --version and used as the tracing service version
var Version = "0.1.0"

// NewRootCommand builds the prodplan command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "prodplan",
		Short: "Production line planning",
		Long: `prodplan turns customer orders and a product catalog into a production plan.
A linear program splits the available labor hours across the ordered products to
maximize units produced, then each product's hours are laid out as shifts and days
starting tomorrow and checked against its due date.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.OnInitialize(initConfig)

	root.PersistentFlags().String("config", config.FileName, "path to prodplan.yml")
	root.PersistentFlags().String("store", "", "run history DSN: sqlite path or mysql:// URL (overrides store.dsn)")
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store", root.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(planCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(generateCmd())
	root.AddCommand(configCmd())
	return root
}

func initConfig() {
	viper.SetEnvPrefix("PRODPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads prodplan.yml and applies PRODPLAN_* environment and flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if viper.IsSet("total-labor-hours") {
		cfg.Planning.TotalLaborHours = viper.GetFloat64("total-labor-hours")
	}
	if viper.IsSet("max-shifts-per-day") {
		cfg.Planning.MaxShiftsPerDay = viper.GetInt("max-shifts-per-day")
	}
	if viper.IsSet("unknown-product") {
		cfg.Planning.UnknownProductPolicy = viper.GetString("unknown-product")
	}
	if viper.IsSet("attainment") {
		cfg.Planning.AttainmentRounding = viper.GetString("attainment")
	}
	if viper.IsSet("solve-timeout") {
		cfg.Planning.SolveTimeout = viper.GetString("solve-timeout")
	}
	if viper.IsSet("duplicate-descriptions") {
		cfg.Catalog.DuplicateDescriptions = viper.GetString("duplicate-descriptions")
	}
	if viper.IsSet("trace-output") {
		cfg.Tracing.Output = viper.GetString("trace-output")
	}
	if dsn := viper.GetString("store"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.New(w, "", log.LstdFlags)
}

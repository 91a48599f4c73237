package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thepom/thepom/internal/config"
)

var (
	cfgFile string
	devMode bool
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thepom",
		Short: "ThePOM admin authentication backend",
		Long: `thepom serves the admin login, session and account API of the ThePOM backend.

Configuration is read from thepom.yaml (optional) and the environment. The most common
settings can be given by their bare names: JWT_SECRET, JWT_EXPIRES_IN, DATABASE_URL,
PORT, APP_ENV and CORS_ORIGIN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./thepom.yaml)")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable debug logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("thepom")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/thepom")
	}

	config.Bind(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}

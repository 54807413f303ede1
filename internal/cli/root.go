package cli

import (
	"fmt"
	"os"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "inkpress",
	Short: "Blogging backend with drafts, publishing, and a read-only API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		if _, statErr := os.Stat(cfgFile); os.IsNotExist(statErr) {
			cfg = config.Default()
		} else {
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		if secret := os.Getenv("INKPRESS_JWT_SECRET"); secret != "" {
			cfg.Auth.JWTSecret = secret
		}

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkpress %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "inkpress.yaml", "config file path")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

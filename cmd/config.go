package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file,
NINEGRID_* environment variables and flags. The output can be saved as
$HOME/.ninegrid.yaml. The S3 secret key is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(effectiveSettings())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func effectiveSettings() map[string]interface{} {
	settings := viper.AllSettings()
	if s3, ok := settings["s3"].(map[string]interface{}); ok {
		if secret, _ := s3["secret-key"].(string); secret != "" {
			s3["secret-key"] = "********"
		}
	}
	return settings
}

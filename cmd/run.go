package cmd

import (
	server "github.com/gabble-chat/gabble/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Gabble server",
	Args:  cobra.MaximumNArgs(0),
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(_ *cobra.Command, _ []string) {
	debug, host, port := viper.GetBool("debug"),
		viper.GetString("host"),
		viper.GetInt("port")

	server.CreateAndListen(debug, host, port)
}

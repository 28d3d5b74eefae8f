package cmd

import (
	"harmonyhub/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Harmony Hub服务器",
	Long:  `启动Harmony Hub的HTTP服务器，提供播放器、上传与社区API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

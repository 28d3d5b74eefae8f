package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harmonyhub",
	Short: "Harmony Hub 音乐播放与社区服务",
	Long:  `Harmony Hub 是一个音乐播放器与轻社交服务：上传歌曲、AI流派分类、歌单管理与社区动态`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

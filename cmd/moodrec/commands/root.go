package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rushteam/moodrec/app"
	"github.com/rushteam/moodrec/config"
	"github.com/rushteam/moodrec/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "moodrec",
	Short: "Mood-based book recommender",
	Long: `moodrec 根据一段描述心情的文字推荐书目。

文字先经情绪分类器得到情绪画像，主导情绪决定主类别与各类别配比，
再按情绪向量相似度与类别强度从书库中选书。`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command 返回根命令。
func Command() *cobra.Command {
	return rootCmd
}

// Execute 执行根命令。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $MOODREC_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

// loadApp 加载配置、初始化日志并组装引擎。
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Output = os.Stderr
	logging.Init(cfg.Log)

	return app.New(ctx, cfg, logging.Logger())
}

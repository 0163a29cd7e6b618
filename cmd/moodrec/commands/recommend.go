package commands

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/moodrec/engine"
	"github.com/rushteam/moodrec/filter"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <text...>",
	Short: "Recommend books for a mood description",
	Long: `根据心情描述推荐书目，结果以 JSON 输出到标准输出。

Example:
  moodrec recommend "I finally got the job, I can't stop smiling" --max-books 10
  moodrec recommend "rough week" --exclude "The Bell Jar"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxBooks, err := cmd.Flags().GetInt("max-books")
		if err != nil {
			return fmt.Errorf("failed to read 'max-books' flag: %w", err)
		}
		exclude, err := cmd.Flags().GetStringSlice("exclude")
		if err != nil {
			return fmt.Errorf("failed to read 'exclude' flag: %w", err)
		}

		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := engine.Request{Text: strings.Join(args, " "), MaxBooks: maxBooks}
		if len(exclude) > 0 {
			req.Params = map[string]any{filter.ParamExcludeTitles: exclude}
		}
		res, err := a.Engine.RecommendRequest(cmd.Context(), req)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	recommendCmd.Flags().Int("max-books", 0, "maximum number of books (0 uses engine.default_max_books)")
	recommendCmd.Flags().StringSlice("exclude", nil, "titles to exclude, comma separated")
}

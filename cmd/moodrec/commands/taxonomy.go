package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rushteam/moodrec/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy [label...]",
	Short: "Show emotion categories and ratio tables",
	Long: `不带参数时列出所有类别及配比表；带参数时输出每个情绪标签所属类别与主类别。

Example:
  moodrec taxonomy
  moodrec taxonomy joy grief curiosity
  moodrec taxonomy --file my-taxonomy.yaml joy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		tax := taxonomy.Default()
		if path != "" {
			t, err := taxonomy.Load(path)
			if err != nil {
				return err
			}
			tax = t
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()

		if len(args) > 0 {
			fmt.Fprintln(w, "LABEL\tCATEGORY\tMAIN")
			for _, label := range args {
				fmt.Fprintf(w, "%s\t%s\t%s\n", label, tax.CategoryOf(label), tax.MainCategory(label))
			}
			return nil
		}

		fmt.Fprintln(w, "CATEGORY\tMEMBERS")
		for _, c := range tax.Categories {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, strings.Join(c.Emotions, ","))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "MAIN\tRATIOS")
		for _, r := range tax.Ratios {
			parts := make([]string, 0, len(r.Table))
			for _, e := range r.Table {
				parts = append(parts, fmt.Sprintf("%s=%.2f", e.Category, e.Weight))
			}
			fmt.Fprintf(w, "%s\t%s\n", r.Main, strings.Join(parts, " "))
		}
		return nil
	},
}

func init() {
	taxonomyCmd.Flags().StringP("file", "f", "", "taxonomy YAML file (default: built-in)")
}

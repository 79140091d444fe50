package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/lingua/internal/excel"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import words from an .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := excel.DefaultImportConfig()
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		cfg.StartRow, _ = cmd.Flags().GetInt("start-row")

		res, err := a.importer.ImportFile(cmd.Context(), args[0], cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Processed: %d\nCreated:   %d\nUpdated:   %d\nNew topics: %d\n",
			res.TotalProcessed, res.Created, res.Updated, res.TopicsCreated)
		for _, e := range res.Errors {
			fmt.Fprintln(out, "  "+e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("sheet", "", "Sheet to read (default: the active sheet)")
	importCmd.Flags().Int("start-row", 2, "First data row, 1-based")
}

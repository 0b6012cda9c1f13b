// Command csvsearch searches a CSV file from the command line.
//
//	csvsearch stars.csv sol --header --name ProperName
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/csvmaps/internal/core"
	"github.com/JonMunkholm/csvmaps/internal/csvdata"
	"github.com/JonMunkholm/csvmaps/internal/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type options struct {
	header bool
	index  int
	name   string
	strict int
	json   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "csvsearch FILE TARGET",
		Short: "Print the rows of a CSV file that contain TARGET",
		Long: `csvsearch parses FILE and prints every row containing TARGET.
Matching ignores case and treats underscores as spaces. Restrict the
search to one column with --index or, when the file has a header, --name.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, opts, args[0], args[1])
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", core.FormatUserError(err))
				fmt.Fprintln(cmd.ErrOrStderr(), "       ", err)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.header, "header", false, "Treat the first row as a header")
	cmd.Flags().IntVar(&opts.index, "index", -1, "Search only the column at this zero-based index")
	cmd.Flags().StringVar(&opts.name, "name", "", "Search only the column with this header name")
	cmd.Flags().IntVar(&opts.strict, "strict", 0, "Reject rows that do not have exactly N fields")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print matching rows as JSON")
	cmd.MarkFlagsMutuallyExclusive("index", "name")

	return cmd
}

func run(cmd *cobra.Command, opts *options, path, target string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tbl, err := parse(f, opts.strict)
	if err != nil {
		return err
	}

	q := search.Query{Target: target, HasHeader: opts.header}
	switch {
	case cmd.Flags().Changed("index"):
		q.Column = search.ByIndex(opts.index)
	case opts.name != "":
		q.Column = search.ByName(opts.name)
	}

	rows, err := search.Search(tbl, q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "no rows matched")
		if q.HasHeader && opts.name != "" && search.ColumnIndex(tbl.Header(), opts.name) < 0 {
			if s := search.SuggestColumn(tbl.Header(), opts.name); s != "" {
				fmt.Fprintf(out, "no column named %q; did you mean %q?\n", opts.name, s)
			}
		}
		return nil
	}

	var header csvdata.Row
	if q.HasHeader {
		header = tbl.Header()
	}
	fmt.Fprintln(out, render(header, rows))
	fmt.Fprintf(out, "%d row(s) matched\n", len(rows))
	return nil
}

func parse(r io.Reader, strict int) (csvdata.Table, error) {
	src, _ := csvdata.WrapSource(r)
	if strict <= 0 {
		return csvdata.ParseTable(src)
	}
	rows, err := csvdata.Parse(src, csvdata.FixedWidth(strict))
	if err != nil {
		return nil, err
	}
	return csvdata.Table(rows), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// render draws rows as a bordered table. Ragged rows are padded so every
// row has the same number of cells.
func render(header csvdata.Row, rows csvdata.Table) string {
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if header != nil {
		t = t.Headers(pad(header, width)...)
	}
	for _, r := range rows {
		t = t.Row(pad(r, width)...)
	}
	return t.String()
}

func pad(r csvdata.Row, width int) []string {
	out := make([]string, width)
	copy(out, r)
	return out
}

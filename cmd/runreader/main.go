// runreader loads one experiment result directory and prints, plots or
// displays its merged training/evaluation table.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/avestel/MLRunViewer/src/plot"
	"github.com/avestel/MLRunViewer/src/results"
)

var (
	resultsDir = kingpin.Flag("results", "Path to the result directory to load.").Required().String()
	columns    = kingpin.Flag("columns", "Column name fragment to select (repeatable).").Strings()
	compute    = kingpin.Flag("compute", "Run the derived-column computations before output.").Bool()
	describe   = kingpin.Flag("describe", "Print per-column summary statistics instead of rows.").Bool()
	maxRows    = kingpin.Flag("max-rows", "Maximum number of data rows to print.").Default("40").Int()
	out        = kingpin.Flag("out", "Save a line plot of the selected columns to this file (.png or .svg).").String()
	dpi        = kingpin.Flag("dpi", "Output DPI for --out.").Default("200").Float64()
	xsize      = kingpin.Flag("xsize", "Output width in cm for --out.").Default("3").Float64()
	ysize      = kingpin.Flag("ysize", "Output height in cm for --out.").Default("2").Float64()
	show       = kingpin.Flag("show", "Display the selected data in a viewer window.").Bool()
)

func main() {
	kingpin.Parse()
	session, err := results.NewSession(*resultsDir)
	if err != nil {
		fatal(err)
	}
	if *compute {
		session.ComputeAll()
	}
	if session.Data == nil {
		fatal(fmt.Errorf("result directory %q holds no readable study/eval data", *resultsDir))
	}
	if *describe {
		printSummaries(session.Describe(*columns...))
	} else {
		printTable(session.Get(*columns...), *maxRows)
	}
	if *out != "" {
		if err := savePlot(session); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", *out)
	}
	if *show {
		session.Display(*columns...)
		fmt.Println("viewer window requested; press enter to quit")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
}

func savePlot(session *results.Session) error {
	if len(*columns) == 0 {
		return fmt.Errorf("--out needs at least one --columns fragment")
	}
	p := plot.NewLinePlot()
	defer p.Close()
	if err := p.Include(session, plot.IncludeOptions{}, *columns...); err != nil {
		return err
	}
	if err := p.Finalize(session.Name, results.StepIndexName, "Value", plot.FinalizeOptions{}); err != nil {
		return err
	}
	return p.Save(*out, *dpi, *xsize, *ysize)
}

func printTable(t *results.Table, max int) {
	grid := t.StringGrid()
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(grid[0])
	rows := grid[1:]
	truncated := false
	if max > 0 && len(rows) > max {
		rows = rows[:max]
		truncated = true
	}
	for _, row := range rows {
		w.Append(row)
	}
	w.Render()
	if truncated {
		fmt.Printf("... %d rows not shown (raise --max-rows)\n", len(grid)-1-max)
	}
}

func printSummaries(summaries []results.ColumnSummary) {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader([]string{"Column", "Count", "Mean", "Std", "Min", "P25", "Median", "P75", "Max"})
	for _, s := range summaries {
		w.Append([]string{
			s.Name,
			strconv.Itoa(s.Count),
			format(s.Mean), format(s.Std), format(s.Min),
			format(s.P25), format(s.Median), format(s.P75), format(s.Max),
		})
	}
	w.Render()
}

func format(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

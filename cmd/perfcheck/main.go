// Command perfcheck evaluates a results file offline and prints the story
// verdicts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ansel1/merry"

	"Sismik/internal/applog"
	"Sismik/internal/importer"
	"Sismik/internal/perf"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
	exitBuildingFail = 3
)

var log = applog.New("perfcheck")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(arguments []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("perfcheck", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		file        = flags.String("file", "", "results file (.json or .xlsx)")
		earthquake  = flags.String("earthquake", "", "earthquake level: DD-1, DD-2 or DD-3")
		performance = flags.String("performance", "", "performance level: SH, KH or GO")
		direction   = flags.String("direction", "", "direction: X or Y")
		jsonOutput  = flags.Bool("json", false, "print the evaluation as JSON")
		debug       = flags.Bool("debug", false, "debug logging")
	)
	if err := flags.Parse(arguments); err != nil {
		return exitInvalidInput
	}
	applog.Init(*debug)
	if *file == "" {
		fmt.Fprintln(stderr, "perfcheck: -file is required")
		flags.Usage()
		return exitInvalidInput
	}
	c, err := perf.ParseCriteria(*earthquake, *performance, *direction)
	if err != nil {
		fmt.Fprintln(stderr, "perfcheck:", merry.UserMessage(err))
		return exitInvalidInput
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(stderr, "perfcheck:", err)
		return exitInvalidInput
	}
	defer f.Close()
	ds, err := importer.Parse(*file, f)
	if err != nil {
		if msg := merry.UserMessage(err); msg != "" {
			fmt.Fprintln(stderr, "perfcheck:", msg)
			return exitInvalidInput
		}
		fmt.Fprintln(stderr, "perfcheck:", err)
		return exitFailure
	}
	for _, w := range ds.Warnings {
		log.Info("skipped", "warning", w)
	}

	ev := perf.Evaluate(ds.Rows, c, perf.Options{CurrentVersion: true})
	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ev); err != nil {
			fmt.Fprintln(stderr, "perfcheck:", err)
			return exitFailure
		}
	} else {
		printEvaluation(stdout, ev)
	}
	if ev.Building != nil && *ev.Building == perf.Fail {
		return exitBuildingFail
	}
	return exitOK
}

func value(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f", *v)
}

func printEvaluation(w io.Writer, ev perf.Evaluation) {
	fmt.Fprintf(w, "%d rows match\n", len(ev.Rows))
	if !ev.Complete {
		fmt.Fprintln(w, "select -earthquake, -performance and -direction to classify stories")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STORY\tVERDICT\tMAX DRIFT\tAVG DRIFT\tMAX N/N0\tAVG N/N0")
	for _, s := range ev.Stories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Story, s.Verdict,
			value(s.MaxDrift), value(s.AvgDrift), value(s.MaxNN0), value(s.AvgNN0))
	}
	tw.Flush()
	fmt.Fprintf(w, "building: %s (%d passed, %d failed)\n", *ev.Building, ev.Summary.Passed, ev.Summary.Failed)
}

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/perillamint/cbz2epub/internal/epub"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify EPUB",
		Short: "Check the structure of an EPUB file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := epub.Verify(args[0])
			if err != nil {
				return fmt.Errorf("verify failed: %w", err)
			}
			writeReport(cmd.OutOrStdout(), report)
			if !report.OK() {
				return fmt.Errorf("%s: %d problems found", args[0], len(report.Problems))
			}
			return nil
		},
	}
}

func writeReport(w io.Writer, report *epub.Report) {
	cover := "-"
	if report.Cover != nil {
		cover = report.Cover.Href + " (" + report.Cover.DetectionMethod + ")"
	}
	summary := [][]string{
		{"Title", report.Title},
		{"Language", report.Language},
		{"Direction", report.Direction},
		{"Layout", report.Layout},
		{"Pages", strconv.Itoa(report.Pages)},
		{"Chapters", strconv.Itoa(report.Chapters)},
		{"Cover", cover},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, summary, nil))

	if report.OK() {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	rows := make([][]string, 0, len(report.Problems))
	for i, p := range report.Problems {
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Entry, p.Message})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Entry", "Problem"}, rows, []columnAlignment{alignRight}))
}

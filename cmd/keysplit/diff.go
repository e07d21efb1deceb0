package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arloliu/keysplit/dataset"
	"github.com/arloliu/keysplit/diff"
)

// errDatasetsDiffer is returned by diff --exit-code when the datasets differ.
var errDatasetsDiffer = errors.New("datasets differ")

func newDiffCmd(c *cli) *cobra.Command {
	var (
		listKeys bool
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "diff LEFT RIGHT",
		Short: "Compare two dataset manifests",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := loadManifest(args[0])
			if err != nil {
				return err
			}
			right, err := loadManifest(args[1])
			if err != nil {
				return err
			}

			result, err := diff.New(left, right,
				diff.WithLogger(c.logger(cmd)),
				diff.WithMetrics(c.metrics),
			).ComputeDiff()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeSummary(out, left.Name(), right.Name(), result.Summary())
			if listKeys {
				writeKeys(out, "only in "+left.Name(), result.OnlyInDataset1())
				writeKeys(out, "only in "+right.Name(), result.OnlyInDataset2())
				writeKeys(out, "different", result.DifferentInDataset1())
			}

			if exitCode && result.Different() {
				return errDatasetsDiffer
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&listKeys, "list", "l", false, "List the keys that differ")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Fail when the datasets differ")

	return cmd
}

func writeSummary(w io.Writer, left, right string, s diff.Summary) {
	fmt.Fprintf(w, "%-10s %8s %10s %10s %10s\n", "facet", "same", "only-left", "only-right", "different")
	for _, row := range []struct {
		facet dataset.Facet
		sum   diff.FacetSummary
	}{
		{dataset.FacetFiles, s.Files},
		{dataset.FacetMetadata, s.Metadata},
	} {
		fmt.Fprintf(w, "%-10s %8d %10d %10d %10d\n", row.facet, row.sum.Same, row.sum.OnlyIn1, row.sum.OnlyIn2, row.sum.Different)
	}
	fmt.Fprintf(w, "left=%s right=%s\n", left, right)
}

func writeKeys(w io.Writer, title string, ds *dataset.Dataset) {
	if ds.IsEmpty() {
		return
	}

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range ds.AllKeys() {
		fmt.Fprintf(w, "  %s\n", k)
	}
}

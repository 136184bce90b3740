package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"experimental/internal/feature"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the experimental features a module can opt into",
	Args:  cobra.NoArgs,
	RunE:  runFeatures,
}

func init() {
	featuresCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type featurePayload struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	DateAdded string   `json:"date_added"`
	Reference string   `json:"reference,omitempty"`
	Summary   string   `json:"summary"`
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	all := feature.All()

	switch format {
	case "json":
		out := make([]featurePayload, 0, len(all))
		for _, f := range all {
			out = append(out, featurePayload{
				Name:      f.Name,
				Aliases:   f.Aliases,
				DateAdded: f.DateAdded.Format("2006-01-02"),
				Reference: f.Reference,
				Summary:   f.Summary,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "pretty":
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tADDED\tALIASES\tSUMMARY")
		for _, f := range all {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.DateAdded.Format("2006-01-02"), strings.Join(f.Aliases, ","), f.Summary)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format: %s", format)
}

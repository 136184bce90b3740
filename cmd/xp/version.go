package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"experimental/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show xp build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout())
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout())
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
	},
}

func renderVersionPretty(out io.Writer) {
	if current != nil && current.color {
		fmt.Fprintf(out, "xp %s\n", version.Colored())
	} else {
		fmt.Fprintf(out, "xp %s\n", version.Version)
	}
	fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(version.Commit()))
	fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(version.BuildDate))
}

func renderVersionJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(versionPayload{
		Tool:      "xp",
		Version:   version.Version,
		GitCommit: version.Commit(),
		BuildDate: version.BuildDate,
	})
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

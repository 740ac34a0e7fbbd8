package terminal

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"e2e_harness/application/scenario"
	"e2e_harness/domain/entities"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var errSuiteFailed = errors.New("suite failed")

// PrintReport writes report to w as yaml or json
func PrintReport(w io.Writer, report *entities.SuiteReport, format string) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
	}
}

// PrintCatalog lists scenarios with their tags and steps
func PrintCatalog(w io.Writer, scenarios []scenario.Scenario) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTAG\tSTEPS\tDESCRIPTION")
	for _, sc := range scenarios {
		tag := sc.Tag
		if tag == "" {
			tag = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", sc.Name, tag, len(sc.Steps), sc.Description)
	}
	return tw.Flush()
}

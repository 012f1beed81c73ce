package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/omnikernel/internal/decode"
	"github.com/ppiankov/omnikernel/internal/pipeline"
)

var (
	lexiconJSON bool
	lexiconYAML bool
)

// lexiconCmd represents the lexicon command
var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Print the active keyword table",
	Long: `Print the keyword table used by the decoder, in evaluation order.
Later rows override earlier ones when several keywords match.

Custom rules from lexicon.path are listed after the built-in table.
--yaml prints the table in the lexicon file format.`,
	RunE: runLexicon,
}

func init() {
	rootCmd.AddCommand(lexiconCmd)

	lexiconCmd.Flags().BoolVar(&lexiconJSON, "json", false, "print as JSON")
	lexiconCmd.Flags().BoolVar(&lexiconYAML, "yaml", false, "print as YAML lexicon file")
}

func runLexicon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var decoder *decode.Decoder
	if cfg.Lexicon.Path != "" {
		extra, err := decode.LoadLexicon(cfg.Lexicon.Path)
		if err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		decoder = decode.NewDecoder(extra...)
	} else {
		decoder = decode.NewDecoder()
	}
	rules := decoder.Rules()

	out := cmd.OutOrStdout()
	switch {
	case lexiconJSON:
		return pipeline.WriteJSON(out, rules)

	case lexiconYAML:
		data, err := yaml.Marshal(map[string]interface{}{"rules": rules})
		if err != nil {
			return fmt.Errorf("error marshaling lexicon: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKEY\tOVERRIDES")
	for i, r := range rules {
		parts := make([]string, len(r.Overrides))
		for j, o := range r.Overrides {
			parts[j] = fmt.Sprintf("%s=%s", o.Param, strconv.FormatFloat(o.Value, 'f', 2, 64))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.Key, strings.Join(parts, ", "))
	}
	return tw.Flush()
}

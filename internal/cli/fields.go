package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feichai0017/docintel/internal/agent/datatype"
	"github.com/feichai0017/docintel/internal/agent/fields"
	"github.com/feichai0017/docintel/internal/agent/schema"
	"github.com/feichai0017/docintel/internal/models"
)

var (
	expectFields bool
	outPath      string
)

var extractCmd = &cobra.Command{
	Use:   "extract <blocks.json>",
	Short: "Extract key/value fields from a block document",
	Long: `Extract reads a block document ({"Blocks": [...]}) and prints every
field it resolves. With --elements the output is narrowed to the matching
fields, ordered by confidence.

Example:
  docintel extract analysis.json
  docintel extract analysis.json --elements elements.yaml --out fields.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var matchCmd = &cobra.Command{
	Use:   "match <blocks.json>",
	Short: "Extract fields and match them against configured elements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("elements") == "" {
			return fmt.Errorf("--elements is required for match")
		}
		return runExtract(cmd, args)
	},
}

var inferCmd = &cobra.Command{
	Use:   "infer <value>...",
	Short: "Print the inferred data type of each value",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, v := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", datatype.Infer(v), v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd, matchCmd, inferCmd)

	for _, c := range []*cobra.Command{extractCmd, matchCmd} {
		c.Flags().BoolVar(&expectFields, "expect", false, "fail when no field resolves")
		c.Flags().StringVar(&outPath, "out", "", "output JSON path (default stdout)")
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	doc, err := readBlockDocument(args[0])
	if err != nil {
		return err
	}

	elements, err := loadElements()
	if err != nil {
		return err
	}

	log := newLogger()
	extractor := fields.NewExtractor(log)

	extracted, err := extractor.ExtractFor(doc.Blocks, expectFields)
	if err != nil {
		return err
	}

	matcher := schema.NewMatcher(schema.NewPatternCache(time.Minute, time.Minute), log)
	matched := matcher.Match(elements, extracted)
	if matched == nil {
		matched = []models.ExtractedField{}
	}

	return writeJSON(cmd.OutOrStdout(), matched)
}

func readBlockDocument(path string) (*models.BlockDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read block document: %w", err)
	}
	var doc models.BlockDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse block document: %w", err)
	}
	return &doc, nil
}

func loadElements() ([]models.ConfiguredElement, error) {
	path := viper.GetString("elements")
	if path == "" {
		return nil, nil
	}
	return schema.LoadElementsFile(path)
}

func writeJSON(stdout io.Writer, v interface{}) error {
	w := stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/docintel/internal/agent"
	"github.com/feichai0017/docintel/internal/agent/classify"
	"github.com/feichai0017/docintel/internal/models"
	"github.com/feichai0017/docintel/internal/utils/validator"
)

var (
	autoClassify  bool
	useLLM        bool
	scanTFN       bool
	taxonomyPath  string
	analyzeTimeout time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the full pipeline on a PDF or image",
	Long: `Analyze sends the file through OCR, field extraction and the enabled
classification stages, then prints the aggregated results.

Example:
  docintel analyze invoice.pdf --classify --llm --taxonomy taxonomy.yaml --tfn`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&autoClassify, "classify", false, "run entity based classification")
	analyzeCmd.Flags().BoolVar(&useLLM, "llm", false, "run LLM classification against --taxonomy")
	analyzeCmd.Flags().BoolVar(&scanTFN, "tfn", false, "scan for tax file numbers")
	analyzeCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "YAML or JSON file with document types")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall timeout")
	analyzeCmd.Flags().BoolVar(&expectFields, "expect", false, "fail when no field resolves")
	analyzeCmd.Flags().StringVar(&outPath, "out", "", "output JSON path (default stdout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	log := newLogger()
	defer log.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	filename := filepath.Base(args[0])

	check := validator.NewDocumentValidator(log, nil).ValidateContent(filename, data)
	if err := check.Err(); err != nil {
		return err
	}

	elements, err := loadElements()
	if err != nil {
		return err
	}
	taxonomy, err := loadTaxonomy(taxonomyPath)
	if err != nil {
		return err
	}

	factory, err := agent.NewProcessorFactory(ctx, log)
	if err != nil {
		return err
	}
	defer factory.Close()

	orchestrator, err := agent.NewOrchestrator(ctx, factory, nil, log)
	if err != nil {
		return err
	}

	mimeType, _ := agent.MimeTypeOf(filename)
	fileType := models.Image
	if mimeType == "application/pdf" {
		fileType = models.PDF
	}

	results, err := orchestrator.Analyze(ctx, classify.Request{
		DocumentID: check.FileInfo.Hash,
		Document: models.Document{
			ID:       check.FileInfo.Hash,
			Filename: filename,
			MimeType: mimeType,
			FileType: fileType,
			Content:  data,
		},
		Options: models.AnalysisOptions{
			Flags: models.AnalysisFlags{
				AutoClassify:      autoClassify,
				UseTextExtraction: useLLM,
				ScanForTFN:        scanTFN,
			},
			Taxonomy:          taxonomy,
			ElementsToExtract: elements,
			ExpectFields:      expectFields,
		},
	})
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), results)
}

func loadTaxonomy(path string) ([]models.DocumentType, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}
	var taxonomy []models.DocumentType
	if err := yaml.Unmarshal(data, &taxonomy); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	return taxonomy, nil
}

// normalize-dictionary runs the dictionary normalization on local workbooks.
//
// Usage:
//
//	go run ./scripts/normalize-dictionary -source Source.xlsx [-presentation Powerapp.xlsx]
//	go run ./scripts/normalize-dictionary -enrich fichier_transforme.xlsx -similar out.xlsx
//
// Configuration: reads config.yaml and the same environment variables as the server.
//
// Flags:
//
//	-source        Source dictionary workbook
//	-presentation  Presentation dictionary workbook (optional)
//	-out           Normalized workbook to write (default: fichier_transforme.xlsx)
//	-similar       Also write the workbook enriched with similar data to this path
//	-enrich        Enrich an existing normalized workbook instead of normalizing (needs -similar)
//	-report        Write a YAML run report to this path
//	-store         Persist the run in the run store (needs database.enabled)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/config"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/database"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/logging"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/repositories"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/services"
)

const defaultOutput = "fichier_transforme.xlsx"

type options struct {
	source       string
	presentation string
	out          string
	similar      string
	enrich       string
	report       string
	store        bool
}

// runReport is the YAML document written by -report.
type runReport struct {
	RunID        string                `yaml:"run_id"`
	CreatedAt    time.Time             `yaml:"created_at"`
	Source       string                `yaml:"source"`
	Presentation string                `yaml:"presentation,omitempty"`
	SourceRows   int                   `yaml:"source_rows"`
	Output       string                `yaml:"output"`
	Similar      string                `yaml:"similar,omitempty"`
	Persisted    bool                  `yaml:"persisted"`
	Tables       []models.TableSummary `yaml:"tables"`
	Diagnostics  []models.Diagnostic   `yaml:"diagnostics"`
}

func main() {
	var opts options
	flag.StringVar(&opts.source, "source", "", "Source dictionary workbook")
	flag.StringVar(&opts.presentation, "presentation", "", "Presentation dictionary workbook (optional)")
	flag.StringVar(&opts.out, "out", defaultOutput, "Normalized workbook to write")
	flag.StringVar(&opts.similar, "similar", "", "Also write the workbook enriched with similar data to this path")
	flag.StringVar(&opts.enrich, "enrich", "", "Enrich an existing normalized workbook instead of normalizing (needs -similar)")
	flag.StringVar(&opts.report, "report", "", "Write a YAML run report to this path")
	flag.BoolVar(&opts.store, "store", false, "Persist the run in the run store")
	flag.Parse()

	if opts.source == "" && opts.enrich == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -source <workbook> [-presentation <workbook>] [-out <workbook>] [-similar <workbook>] [-report <yaml>] [-store]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -enrich <workbook> -similar <workbook>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load("cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(config.LogConfig{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var runs repositories.CatalogRunRepository
	if opts.store {
		if !cfg.Database.Enabled {
			fmt.Fprintln(os.Stderr, "-store needs database.enabled (PGENABLED=true)")
			os.Exit(1)
		}
		db, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open run store: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		runs = repositories.NewCatalogRunRepository(db)
	}

	svc := services.NewDictionaryService(cfg.Dictionary, runs, logger)
	if err := run(ctx, svc, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one invocation and prints a short summary to w.
func run(ctx context.Context, svc services.DictionaryService, opts options, w io.Writer) error {
	if opts.enrich != "" {
		if opts.similar == "" {
			return errors.New("-enrich needs -similar")
		}
		input, err := readWorkbook(opts.enrich)
		if err != nil {
			return err
		}
		return enrich(ctx, svc, *input, opts.similar, w)
	}

	req := services.NormalizeRequest{Origin: models.RunOriginCLI}
	source, err := readWorkbook(opts.source)
	if err != nil {
		return err
	}
	req.Source = *source
	if opts.presentation != "" {
		if req.Presentation, err = readWorkbook(opts.presentation); err != nil {
			return err
		}
	}

	out, err := svc.Normalize(ctx, req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, out.Workbook, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}

	fmt.Fprintf(w, "Run %s: %d tables written to %s\n", out.Run.ID, len(out.Run.Tables), opts.out)
	for _, t := range out.Run.Tables {
		fmt.Fprintf(w, "  %-22s %6d rows\n", t.Name, t.Len())
	}
	for _, d := range out.Result.Diagnostics {
		fmt.Fprintf(w, "  warning [%s] %s\n", d.Table, d.Message)
	}

	if opts.similar != "" {
		if err := enrich(ctx, svc, services.WorkbookInput{Name: filepath.Base(opts.out), Content: out.Workbook}, opts.similar, w); err != nil {
			return err
		}
	}

	if opts.report != "" {
		if err := writeReport(opts, out); err != nil {
			return err
		}
		fmt.Fprintf(w, "Report written to %s\n", opts.report)
	}
	return nil
}

func enrich(ctx context.Context, svc services.DictionaryService, input services.WorkbookInput, path string, w io.Writer) error {
	data, err := svc.EnrichSimilar(ctx, input)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Similar data written to %s\n", path)
	return nil
}

func readWorkbook(path string) (*services.WorkbookInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &services.WorkbookInput{Name: filepath.Base(path), Content: content}, nil
}

func writeReport(opts options, out *services.NormalizeOutput) error {
	report := runReport{
		RunID:        out.Run.ID.String(),
		CreatedAt:    out.Run.CreatedAt,
		Source:       opts.source,
		Presentation: opts.presentation,
		SourceRows:   out.Run.SourceRows,
		Output:       opts.out,
		Similar:      opts.similar,
		Persisted:    out.Persisted,
		Tables:       make([]models.TableSummary, 0, len(out.Run.Tables)),
		Diagnostics:  out.Result.Diagnostics,
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []models.Diagnostic{}
	}
	for _, t := range out.Run.Tables {
		report.Tables = append(report.Tables, t.Summary())
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(opts.report, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.report, err)
	}
	return nil
}

// Command formfill fills a PDF template from a CSV dataset without running
// the server. Missing choices are asked for interactively.
//
// Usage:
//
//	formfill --template w9.pdf --csv w9.csv --rows 0,2 --out filled.pdf
//	formfill                      # pick template, dataset and row in the terminal
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"

	"go-formfill/internal/dataset"
	"go-formfill/internal/formfill"
)

type options struct {
	templatesDir string
	dataDir      string
	template     string
	csv          string
	rows         []int
	all          bool
	out          string
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if errors.Is(err, terminal.InterruptErr) {
			os.Exit(130)
		}
		log.Fatalf("[ERROR] %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	var opts options
	fs := pflag.NewFlagSet("formfill", pflag.ContinueOnError)
	fs.StringVar(&opts.templatesDir, "templates-dir", envOr("FORMFILL_TEMPLATES_DIR", "templates"), "Directory holding PDF templates")
	fs.StringVar(&opts.dataDir, "data-dir", envOr("FORMFILL_DATA_DIR", "data"), "Directory holding CSV datasets")
	fs.StringVarP(&opts.template, "template", "t", "", "Template file name")
	fs.StringVarP(&opts.csv, "csv", "c", "", "CSV dataset file name (default: the template's companion CSV)")
	fs.IntSliceVarP(&opts.rows, "rows", "r", nil, "Zero-based data rows to fill")
	fs.BoolVar(&opts.all, "all", false, "Fill every data row into one merged PDF")
	fs.StringVarP(&opts.out, "out", "o", "", "Output file (default: the generated name in the current directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	outDir, err := os.MkdirTemp("", "formfill-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(outDir)

	svc, err := formfill.New(opts.templatesDir, opts.dataDir, outDir, nil)
	if err != nil {
		return err
	}

	if opts.template == "" {
		if opts.template, err = pickTemplate(svc); err != nil {
			return err
		}
	}
	if opts.csv == "" {
		if opts.csv, err = pickDataset(svc, opts.template); err != nil {
			return err
		}
	}
	if len(opts.rows) == 0 {
		if opts.rows, err = pickRows(svc, opts.csv, opts.all); err != nil {
			return err
		}
	}

	res, err := svc.Fill(ctx, formfill.FillRequest{Template: opts.template, CSV: opts.csv, Rows: opts.rows})
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = res.Name
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Printf("[INFO] wrote %s (%d rows)", filepath.Clean(out), res.Rows)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func pickTemplate(svc *formfill.Service) (string, error) {
	names, err := svc.ListTemplates()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no templates in %s", svc.Templates.Dir())
	}
	var answer string
	err = survey.AskOne(&survey.Select{
		Message: "Template:",
		Options: names,
	}, &answer)
	return answer, err
}

func pickDataset(svc *formfill.Service, template string) (string, error) {
	names, err := svc.MatchingDatasets(template)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no CSV named %s in %s", dataset.CompanionName(template), svc.Datasets.Dir())
	}
	if len(names) == 1 {
		return names[0], nil
	}
	var answer string
	err = survey.AskOne(&survey.Select{
		Message: "Dataset:",
		Options: names,
	}, &answer)
	return answer, err
}

func pickRows(svc *formfill.Service, csv string, all bool) ([]int, error) {
	ds, err := svc.Dataset(csv)
	if err != nil {
		return nil, err
	}
	if all {
		rows := make([]int, ds.Len())
		for i := range rows {
			rows[i] = i
		}
		return rows, nil
	}
	if ds.Len() == 1 {
		return []int{0}, nil
	}

	labels := make([]string, ds.Len())
	for i, row := range ds.Rows {
		labels[i] = fmt.Sprintf("%d: %s", i, strings.Join(row, ", "))
	}
	var picked []string
	err = survey.AskOne(&survey.MultiSelect{
		Message:  "Rows:",
		Options:  labels,
		Default:  []string{labels[0]},
		PageSize: 15,
	}, &picked, survey.WithValidator(survey.MinItems(1)))
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0, len(picked))
	for _, p := range picked {
		for i, l := range labels {
			if l == p {
				rows = append(rows, i)
				break
			}
		}
	}
	return rows, nil
}

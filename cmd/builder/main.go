package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nkoenen/fieldsearch/internal/artifact"
	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/ingest"
	"github.com/nkoenen/fieldsearch/internal/ontology"
	"github.com/nkoenen/fieldsearch/internal/schema"
	"github.com/nkoenen/fieldsearch/pkg/config"
	"github.com/nkoenen/fieldsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inputPath := flag.String("input", "", "path to the entity table CSV")
	ontologyPath := flag.String("ontology", "", "override the configured ontology path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *ontologyPath != "" {
		cfg.Ontology.Path = *ontologyPath
	}
	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "--input is required")
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("builder")

	s, err := schema.FromConfig(cfg.Fields)
	if err != nil {
		log.Error("invalid field schema", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	records, err := ingest.ReadTable(*inputPath, tableDelimiter(cfg.Ingest.Delimiter))
	if err != nil {
		log.Error("failed to read input table", "path", *inputPath, "error", err)
		os.Exit(1)
	}
	log.Info("table loaded", "path", *inputPath, "records", len(records))

	idx, meta, err := index.Build(records, s)
	if err != nil {
		log.Error("index build failed", "error", err)
		os.Exit(1)
	}

	if cfg.Ontology.Path != "" {
		ont, err := ontology.Load(cfg.Ontology.Path)
		if err != nil {
			log.Error("failed to load ontology", "path", cfg.Ontology.Path, "error", err)
			os.Exit(1)
		}
		s = s.WithTextField(cfg.Ontology.Field, cfg.Ontology.Boost)
		ont.Augment(idx, cfg.Ontology.Field)
		log.Info("ontology indexed", "path", cfg.Ontology.Path, "field", cfg.Ontology.Field)
	}

	// Postings are final here; IDF and norms must see the complete index.
	idf := index.ComputeIDF(idx)
	norms := index.ComputeNorms(idx, idf, s.Boosts())

	if err := artifact.SaveAll(cfg.Index.DataDir, idx, idf, norms, meta); err != nil {
		log.Error("failed to persist artifacts", "dir", cfg.Index.DataDir, "error", err)
		os.Exit(1)
	}

	for _, field := range s.TextFields() {
		log.Info("field indexed", "field", field, "unique_terms", len(idx.Text[field]))
	}
	log.Info("build complete",
		"doc_count", idx.DocCount,
		"data_dir", cfg.Index.DataDir,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// tableDelimiter maps the configured delimiter string to the rune the CSV
// reader expects, defaulting to semicolon when unset.
func tableDelimiter(configured string) rune {
	if configured == "" {
		return ';'
	}
	return rune(configured[0])
}

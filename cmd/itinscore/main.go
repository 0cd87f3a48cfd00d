package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"gopkg.in/yaml.v3"

	// SQL drivers for the upstream corpus source.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/viant/bigquery"

	// Remote document locations for score --url.
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"github.com/voyagekit/itinscore/document"
	"github.com/voyagekit/itinscore/service"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "score":
		scoreCmd(os.Args[2:])
	case "corpus":
		corpusCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: itinscore <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  score   Score itinerary documents (pdf/docx/xlsx/xls)")
	fmt.Fprintln(os.Stderr, "  corpus  Build the reference corpus (from a file or upstream SQL)")
	fmt.Fprintln(os.Stderr, "  search  Query the reference corpus with free text")
}

func scoreCmd(args []string) {
	flags := flag.NewFlagSet("score", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	url := flags.String("url", "", "document URL (file path, s3://, gs://)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := mustService(ctx, *configPath)
	defer func() { _ = svc.Close() }()

	if *url != "" {
		report, err := svc.ScoreURL(ctx, *url)
		if err != nil {
			log.Fatalf("score: %v", err)
		}
		printJSON(report)
		return
	}
	files := flags.Args()
	if len(files) == 0 {
		log.Fatal("score: provide --url or one or more document paths")
	}
	docs := make([]*document.RawDocument, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		format, err := document.SniffFormat(path, data)
		if err != nil {
			log.Fatalf("sniff %s: %v", path, err)
		}
		doc, err := document.NewRaw(path, data, format)
		if err != nil {
			log.Fatalf("prepare %s: %v", path, err)
		}
		docs = append(docs, doc)
	}
	for _, outcome := range svc.ScoreAll(ctx, docs) {
		if outcome.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", outcome.DocumentID, outcome.Err)
			continue
		}
		printJSON(outcome.Report)
	}
}

// corpusFile is the YAML shape accepted by corpus --input.
type corpusFile struct {
	References []service.CorpusDocument `yaml:"references"`
}

func corpusCmd(args []string) {
	flags := flag.NewFlagSet("corpus", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (required)")
	input := flags.String("input", "", "yaml file with labeled reference texts")
	upstream := flags.Bool("upstream", false, "import references from the configured upstream database")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := mustService(ctx, *configPath)
	defer func() { _ = svc.Close() }()

	switch {
	case *upstream:
		if err := svc.SyncUpstream(ctx); err != nil {
			log.Fatalf("corpus: %v", err)
		}
	case *input != "":
		data, err := os.ReadFile(*input)
		if err != nil {
			log.Fatalf("read %s: %v", *input, err)
		}
		var file corpusFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			log.Fatalf("parse %s: %v", *input, err)
		}
		if len(file.References) == 0 {
			log.Fatalf("corpus: %s contains no references", *input)
		}
		if err := svc.BuildCorpus(ctx, file.References); err != nil {
			log.Fatalf("corpus: %v", err)
		}
	default:
		log.Fatal("corpus: provide --input or --upstream")
	}
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (required)")
	query := flags.String("query", "", "free-text query (required)")
	k := flags.Int("k", 5, "number of neighbors")
	flags.Parse(args)

	if *query == "" {
		log.Fatal("search: --query is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := mustService(ctx, *configPath)
	defer func() { _ = svc.Close() }()

	results, err := svc.Search(ctx, *query, *k)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	printJSON(results)
}

func mustService(ctx context.Context, configPath string) *service.Service {
	cfg := &service.Config{}
	if configPath != "" {
		loaded, err := service.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "default"
	}
	svc, err := service.New(ctx, cfg)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

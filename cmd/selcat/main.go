// Selcat — CLI утилита категоризации CSS селекторов.
//
// Использование:
//   ./selcat page_selectors.json
//   ./selcat -out result.json page_selectors.json
//   ./selcat -batch ./selectors
//   ./selcat -s3 selectors/
//   ./selcat -rules-only ./selectors
//
// Если config.yaml не найден, используется Groq с ключом из GROQ_API_KEY.
// Без ключа документы категоризируются правилами.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ilkoid/selcat/pkg/app"
	"github.com/ilkoid/selcat/pkg/categorizer"
	"github.com/ilkoid/selcat/pkg/docstore"
	"github.com/ilkoid/selcat/pkg/report"
	"github.com/ilkoid/selcat/pkg/selectors"
	"github.com/ilkoid/selcat/pkg/utils"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

// DefaultLogPrefix — префикс лог-файла, если app.log_prefix не задан.
const DefaultLogPrefix = "selcat"

func main() {
	// 1. Парсим флаги
	var (
		configPath  = flag.String("config", "", "Path to config.yaml (default: ./config.yaml)")
		debugFlag   = flag.Bool("debug", false, "Enable debug logging")
		rulesOnly   = flag.Bool("rules-only", false, "Skip AI, categorize with keyword rules")
		outPath     = flag.String("out", "", "Output file (single file) or directory (batch)")
		s3Prefix    = flag.String("s3", "", "Process documents from S3 under this prefix")
		batchDir    = flag.String("batch", "", "Process every *.json in directory")
		width       = flag.Int("width", report.DefaultOptions().Width, "Report width in columns")
		showHelp    = flag.Bool("help", false, "Show help")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	// 2. Обработка специальных флагов
	if *showVersion {
		fmt.Printf("selcat version %s\n", Version)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	input := *batchDir
	if input == "" {
		input = flag.Arg(0)
	}
	if input == "" && *s3Prefix == "" {
		fmt.Fprintln(os.Stderr, "Error: input file or directory is required")
		fmt.Fprintln(os.Stderr, "Usage: selcat [flags] <selectors.json | dir>")
		fmt.Fprintln(os.Stderr, "Run 'selcat -help' for more information")
		os.Exit(1)
	}

	// 3. Загружаем конфигурацию
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configPath}, *configPath != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPrefix := cfg.App.LogPrefix
	if logPrefix == "" {
		logPrefix = DefaultLogPrefix
	}
	if err := utils.InitLogger(logPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	utils.SetDebug(*debugFlag || cfg.App.Debug)
	utils.Info("selcat started", "version", Version, "config", cfgPath)

	// 4. Создаём компоненты
	comps, err := app.Initialize(cfg, app.Options{RulesOnly: *rulesOnly})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating components: %v\n", err)
		os.Exit(1)
	}

	if comps.AIDisabledReason != nil {
		fmt.Fprintln(os.Stderr, report.WarnStyle("AI disabled: "+comps.AIDisabledReason.Error()+", using keyword rules"))
	}

	// 5. Хранилище документов
	spec := app.StoreSpec{Input: input, S3Prefix: *s3Prefix}
	if isBatch(input, *s3Prefix, *batchDir) {
		spec.OutDir = *outPath
	}
	store, err := app.NewStore(cfg, spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		comps.Close()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanup := utils.SetupGracefulShutdown(cancel)

	opts := report.DefaultOptions()
	opts.Width = *width

	// 6. Выполняем
	var code int
	if isBatch(input, *s3Prefix, *batchDir) {
		code = runBatch(ctx, comps.Categorizer, store, opts)
	} else {
		code = runSingle(ctx, comps.Categorizer, store, input, *outPath, opts)
	}

	// os.Exit не выполняет defer
	cleanup()
	comps.Close()
	os.Exit(code)
}

func runSingle(ctx context.Context, c *categorizer.Categorizer, store docstore.Store, input, out string, opts report.Options) int {
	o := c.Process(ctx, store, input, out)
	if o.Failed() {
		fmt.Fprintln(os.Stderr, report.ErrorStyle(fmt.Sprintf("Error: %s: %v", input, o.Err)))
		return 1
	}

	fmt.Println(report.RenderResult(o.Result, opts))
	fmt.Println(report.DimStyle("Saved to " + o.Output))
	return 0
}

func runBatch(ctx context.Context, c *categorizer.Categorizer, store docstore.Store, opts report.Options) int {
	names, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	summary := c.RunBatch(ctx, store, names)
	fmt.Println(report.RenderBatch(summary, opts))

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// isBatch: каталог, -batch или S3 обрабатываются пакетно.
func isBatch(input, s3Prefix, batchDir string) bool {
	if s3Prefix != "" || batchDir != "" {
		return true
	}
	info, err := os.Stat(input)
	return err == nil && info.IsDir()
}

func printHelp() {
	fmt.Println(`selcat — categorize extracted CSS selectors into functional groups

Usage:
  selcat [flags] <selectors.json>
  selcat [flags] <directory>
  selcat [flags] -batch <directory>
  selcat [flags] -s3 <prefix>

Flags:
  -config string    Path to config.yaml
  -debug            Enable debug logging
  -rules-only       Skip AI, categorize with keyword rules
  -out string       Output file (single file) or directory (batch)
  -s3 string        Process documents from S3 under this prefix
  -batch string     Process every *.json in directory
  -width int        Report width in columns
  -version          Show version
  -help             Show this help

Categories:`)
	for _, def := range selectors.Definitions() {
		fmt.Printf("  %-24s %s\n", def.Key, def.Name)
	}
	fmt.Println(`
Results are written next to the input directory under
categorized_selectors/<name>_categorized.json.

Environment:
  GROQ_API_KEY      API key for the default model when no config.yaml is found`)
}

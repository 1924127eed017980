// Selector-extract — извлекает CSS селекторы из сохранённой HTML страницы
// в документ, который принимает selcat.
//
// Использование:
//   ./selector-extract page.html
//   ./selector-extract -url https://shop.example -out page_selectors.json page.html
//   ./selector-extract -stdout page.html
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilkoid/selcat/pkg/extract"
)

// Version — версия утилиты (заполняется при сборке)
var Version = "dev"

func main() {
	var (
		pageURL     = flag.String("url", "", "Source page URL written to statistics.url")
		outPath     = flag.String("out", "", "Output file (default: <page>_selectors.json)")
		toStdout    = flag.Bool("stdout", false, "Print document to stdout")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("selector-extract version %s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: selector-extract [-url URL] [-out FILE] [-stdout] <page.html>")
		os.Exit(1)
	}
	input := flag.Arg(0)

	f, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	doc, err := extract.New(extract.WithURL(*pageURL)).Extract(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting selectors: %v\n", err)
		os.Exit(1)
	}

	data, err := doc.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *toStdout {
		fmt.Println(string(data))
		return
	}

	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "_selectors.json"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}

	fmt.Printf("Extracted %d elements -> %s\n", doc.Statistics.TotalElements, out)
}

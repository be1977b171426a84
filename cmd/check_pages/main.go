// Command check_pages reports what the translator would see in a PDF: page
// counts from both parsers, extracted and normalized character counts, the
// dominant script and the chunk plan. It does not call any translation backend.
//
// Usage:
//
//	go run ./cmd/check_pages [-chunk 4500] <file.pdf> [more.pdf ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/script"
	"pdf-translator/internal/translator"
)

var (
	chunkSize = flag.Int("chunk", translator.DefaultChunkSize, "Chunk size limit in characters")
	verbose   = flag.Bool("v", false, "Print the first characters of every chunk")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Usage: check_pages [-chunk N] [-v] <file.pdf> [more.pdf ...]")
		os.Exit(1)
	}

	extractor := pdf.NewExtractor(pdf.ExtractorConfig{Logger: logger.Nop()})
	failed := false
	for _, path := range flag.Args() {
		if err := check(extractor, path); err != nil {
			fmt.Printf("Error: %s: %v\n\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(2)
	}
}

func check(extractor *pdf.Extractor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  Size:          %d bytes\n", len(data))
	if n, err := pdf.CountPages(data); err != nil {
		fmt.Printf("  Pages (pdfcpu): error: %v\n", err)
	} else {
		fmt.Printf("  Pages (pdfcpu): %d\n", n)
	}

	doc, err := extractor.ExtractBytes(data)
	if err != nil {
		return err
	}

	raw := doc.Text()
	text := translator.Normalize(raw)
	fmt.Printf("  Pages (text):  %d\n", doc.PageCount())
	for _, p := range doc.Pages {
		if strings.TrimSpace(p.Text) == "" {
			fmt.Printf("    page %d has no text\n", p.Index)
		}
	}
	fmt.Printf("  Characters:    %d raw, %d normalized\n", utf8.RuneCountInString(raw), utf8.RuneCountInString(text))
	fmt.Printf("  Script:        %s\n", script.Classify(text))

	chunks := translator.Plan(text, *chunkSize)
	if len(chunks) == 1 {
		fmt.Printf("  Plan:          single request\n")
	} else {
		fmt.Printf("  Plan:          %d chunks (limit %d)\n", len(chunks), *chunkSize)
	}
	for _, c := range chunks {
		over := ""
		if c.Len() > *chunkSize {
			over = " (oversized sentence)"
		}
		fmt.Printf("    #%-3d %6d chars%s\n", c.Index+1, c.Len(), over)
		if *verbose {
			fmt.Printf("         %q\n", preview(c.Text, 60))
		}
	}
	fmt.Println()
	return nil
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

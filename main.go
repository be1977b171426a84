package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pdf-translator/internal/types"
)

// Command line flags
var (
	configFlag = flag.String("config", "", "Configuration file (.json or .yaml); default ~/.config/pdf-translator/pdf-translator-config.json")
	srcFlag    = flag.String("src", types.AutoDetect, "Source language code, or \"auto\"")
	dstFlag    = flag.String("dst", "", "Target language code (required)")
	outFlag    = flag.String("o", "", "Output PDF path (default <name>_<dst>_translated.pdf next to the input)")
	listFlag   = flag.Bool("languages", false, "List supported language codes and exit")
	quietFlag  = flag.Bool("q", false, "Do not print progress")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("PDF Translator - translate the text of a PDF and typeset it into a new PDF")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pdf-translator [options] -dst <lang> <input.pdf>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pdf-translator -dst hi paper.pdf")
	fmt.Println("  pdf-translator -src en -dst te -o poems_te.pdf poems.pdf")
	fmt.Println("  pdf-translator -config ./translator.yaml -dst ja report.pdf")
	fmt.Println()
	fmt.Println("The OpenAI API key is read from the config file or OPENAI_API_KEY.")
}

func printLanguages() {
	for _, code := range types.SortedLanguages() {
		fmt.Printf("  %-3s %s\n", code, types.LanguageName(code))
	}
}

// exit codes
const (
	exitOK = iota
	exitUsage
	exitFailed
)

func main() {
	flag.Usage = printHelp
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *listFlag {
		printLanguages()
		return exitOK
	}

	if flag.NArg() != 1 || *dstFlag == "" {
		printHelp()
		return exitUsage
	}
	input := flag.Arg(0)
	if !fileExists(input) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", input)
		return exitUsage
	}

	// Ctrl-C aborts at the next chunk boundary
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	if err := app.startup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	defer app.shutdown()

	if !*quietFlag {
		app.SetStatusCallback(func(s *types.Status) {
			if s.Phase == types.PhaseError {
				return
			}
			fmt.Printf("  [%3d%%] %s - %s\n", s.Progress, s.Phase, s.Message)
		})
	}

	fmt.Printf("Translating %s (%s -> %s)\n", input, *srcFlag, *dstFlag)
	outcome, err := app.TranslatePDF(ctx, input, *srcFlag, *dstFlag, *outFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		return exitFailed
	}

	res := outcome.Result
	fmt.Println()
	fmt.Println("=== Translation complete ===")
	fmt.Printf("Output:          %s\n", outcome.OutputPath)
	fmt.Printf("Source pages:    %d\n", res.Pages)
	fmt.Printf("Output pages:    %d\n", res.Document.PageCount)
	fmt.Printf("Characters:      %d\n", res.ExtractedChars)
	fmt.Printf("Chunks:          %d\n", res.Chunks)
	fmt.Printf("Font:            %s\n", res.Document.FontFamily)
	if res.Document.FellBack {
		fmt.Println("Warning: the preferred font was not found; output uses the fallback font")
	}
	if res.Degraded() {
		fmt.Printf("Warning: %d section(s) could not be translated and are marked in the output\n", res.FailedChunks)
	}
	return exitOK
}

// describeError formats err as "<reason> (<code>)" for AppErrors.
func describeError(err error) string {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	msg := appErr.Error()
	if appErr.Cause != nil && !strings.Contains(msg, appErr.Cause.Error()) {
		msg += ": " + appErr.Cause.Error()
	}
	return fmt.Sprintf("%s (%s)", msg, appErr.Code)
}

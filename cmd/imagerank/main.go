// Package main provides imagerank, a command-line tool that runs the product
// image heuristics on a saved HTML page or a live URL and prints the ranked
// candidates as JSON. It is meant for tuning selectors and weights.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"product-image-scraper/internal/config"
	"product-image-scraper/internal/models"
	"product-image-scraper/internal/scraper"

	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code:
// 0 on success, 1 on usage or input errors, 2 when no product image was found.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imagerank", flag.ContinueOnError)
	fs.SetOutput(stderr)

	inputPath := fs.String("input", "", "Input HTML file path (use '-' for stdin)")
	baseURL := fs.String("base", "", "Page URL used to resolve relative image sources (required with -input)")
	targetURL := fs.String("url", "", "Render this URL with headless Chrome instead of reading -input")
	modeStr := fs.String("mode", string(models.PolicyFullRanked), "Output mode: best-one or full-ranked")
	configPath := fs.String("config", "", "YAML or JSON config file with selectors, markers and weights")
	timeout := fs.Duration("timeout", 90*time.Second, "Timeout for rendering with -url")
	compact := fs.Bool("compact", false, "Output compact JSON without indentation")
	verbose := fs.Bool("verbose", false, "Log every scored candidate and the rules that fired")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "imagerank - rank the product images of a page\n\n")
		fmt.Fprintf(stderr, "Usage: imagerank [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  imagerank -input product.html -base https://shop.example/p/1\n")
		fmt.Fprintf(stderr, "  imagerank -url https://shop.example/p/1 -mode best-one\n")
		fmt.Fprintf(stderr, "  curl -s https://shop.example/p/1 | imagerank -input - -base https://shop.example/p/1 -verbose\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.TraceLevel
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	policy, err := models.ParseOutputPolicy(*modeStr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid mode: %s. Must be one of: best-one, full-ranked\n", *modeStr)
		return 1
	}

	sc := config.DefaultScrapeConfig()
	ic := config.DefaultProductImageConfig()
	if *configPath != "" {
		fc, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
		if err := config.ApplyFileConfig(&sc, &ic, fc); err != nil {
			fmt.Fprintf(stderr, "Invalid config %s: %v\n", *configPath, err)
			return 1
		}
	}
	config.ApplyEnv(&sc)

	var result models.ProductImageResult
	start := time.Now()
	switch {
	case *targetURL != "":
		s, err := scraper.NewScraper(sc, ic, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		result, err = s.ScrapeProductImage(ctx, *targetURL, policy)
		if err != nil {
			return reportError(stderr, err)
		}
		result.Metadata.URL = *targetURL
	case *inputPath != "":
		if *baseURL == "" {
			fmt.Fprintf(stderr, "-base is required with -input\n")
			return 1
		}
		page, err := readInput(*inputPath, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading input: %v\n", err)
			return 1
		}
		pe, err := scraper.NewProductImageExtractor(ic, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		result, err = pe.FindProductImage(page, *baseURL, policy)
		if err != nil {
			return reportError(stderr, err)
		}
	default:
		fs.Usage()
		return 1
	}
	result.Metadata.ScrapedAt = time.Now()
	result.Metadata.DurationMs = time.Since(start).Milliseconds()

	enc := json.NewEncoder(stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}
	return 0
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func reportError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if models.IsNotFound(err) {
		return 2
	}
	return 1
}

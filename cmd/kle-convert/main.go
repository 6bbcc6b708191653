package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/layoutkit/kle"
)

func main() {
	var (
		inFile  = flag.String("in", "", "Path to KLE JSON layout file")
		outFile = flag.String("out", "", "Output path (default: stdout)")
		binary  = flag.Bool("binary", false, "Write a msgpack snapshot instead of KLE JSON")
		pretty  = flag.Bool("pretty", false, "Indent the JSON output")
		stats   = flag.Bool("stats", false, "Print layout stats and exit")
		verbose = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: kle-convert -in <layout.json> [-out file] [-binary] [-pretty]")
		fmt.Fprintln(os.Stderr, "       kle-convert -in <layout.json> -stats")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		kle.SetLogger(logger)
	}

	if err := run(*inFile, *outFile, *binary, *pretty, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile, outFile string, binary, pretty, stats bool) error {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	kb, err := kle.FromJSON(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if stats {
		printStats(kb)
		return nil
	}

	var out []byte
	switch {
	case binary:
		out, err = kle.MarshalBinary(kb)
	case pretty:
		out, err = json.MarshalIndent(kle.ToJSONValue(kb), "", "  ")
		out = append(out, '\n')
	default:
		out, err = kle.ToJSON(kb)
		out = append(out, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if outFile == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outFile, out, 0o644)
}

func printStats(kb *kle.Keyboard) {
	fmt.Printf("Name:   %s\n", kb.Metadata.Name)
	fmt.Printf("Author: %s\n", kb.Metadata.Author)
	fmt.Printf("Keys:   %d\n", len(kb.Keys))

	rotated := 0
	decals := 0
	for _, key := range kb.Keys {
		if !key.RotationAngle.IsZero() {
			rotated++
		}
		if key.Decal {
			decals++
		}
	}
	fmt.Printf("Rotated keys: %d\n", rotated)
	fmt.Printf("Decals:       %d\n", decals)
}

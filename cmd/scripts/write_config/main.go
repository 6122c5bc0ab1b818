package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/traxaero/interfaces/internal/config"
)

// write_config writes the effective configuration (defaults, then the
// existing file, then environment overrides) to -out. Point it at a new
// path to get a fully populated config.yaml to edit.
func main() {
	in := flag.String("config", os.Getenv("CONFIG_PATH"), "config file to start from")
	out := flag.String("out", "", "destination path")
	flag.Parse()

	if *out == "" {
		fmt.Fprintln(os.Stderr, "-out is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*in)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Save(*out); err != nil {
		fmt.Printf("Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

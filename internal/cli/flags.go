package cli

import (
	"flag"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port    int
	Verbose bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.IntVar(&flags.Port, "port", 8080, "Port to listen on")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ImportFlags holds the CLI flags for the import command.
type ImportFlags struct {
	File    string
	Account string
	DryRun  bool
	Verbose bool
}

// ParseImportFlags parses command line flags for the import command.
func ParseImportFlags() *ImportFlags {
	flags := &ImportFlags{}
	flag.StringVar(&flags.File, "file", "", "Statement file to import (.csv, .ofx, .qfx)")
	flag.StringVar(&flags.Account, "account", "", "Account ID for CSV imports (OFX statements identify their own account)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Parse and classify without saving")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

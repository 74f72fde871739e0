package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mocksoul/opentui/internal/config"
	"github.com/mocksoul/opentui/internal/ffi"
	"github.com/mocksoul/opentui/internal/platform"
	"github.com/mocksoul/opentui/internal/resolve"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	width := flag.String("width", "", "Print the display width of a string and exit")
	table := flag.String("table", "", "Load a YAML symbol table and report normalization")
	lib := flag.String("lib", "", "Dlopen a library artifact and report symbol resolution")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	var logger *zap.Logger
	if cfg.LogLevel == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting opentui-probe",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	if *width != "" {
		fmt.Printf("%q: %d columns\n", *width, platform.DisplayWidth(*width))
		return
	}

	if *table != "" {
		if err := probeTable(*table); err != nil {
			logger.Fatal("Symbol table check failed", zap.Error(err))
		}
		return
	}

	backend, err := platform.Detect()
	if err != nil {
		logger.Fatal("No usable backend", zap.Error(err))
	}
	plat, err := platform.PlatformArch()
	if err != nil {
		logger.Fatal("Platform undetectable", zap.Error(err))
	}
	fmt.Printf("backend:       %s\n", backend)
	fmt.Printf("platform:      %s\n", plat.OS)
	fmt.Printf("arch:          %s\n", plat.Arch)
	fmt.Printf("pointer width: %d bytes\n", plat.PointerWidth())
	fmt.Printf("artifact:      %s\n", resolve.LibraryFile(backend, plat))

	if *lib == "" && cfg.LibraryPath != "" {
		*lib = cfg.LibraryPath
	}
	if *lib != "" {
		if err := probeLibrary(*lib, backend, cfg, logger); err != nil {
			logger.Fatal("Library probe failed", zap.Error(err))
		}
	}
}

func probeTable(path string) error {
	specs, err := ffi.LoadTable(path)
	if err != nil {
		return err
	}
	normalized, err := ffi.NormalizeTable(specs)
	if err != nil {
		return err
	}
	for name, sym := range normalized {
		fmt.Printf("%s: %d parameter(s), returns %s", name, len(sym.Args), sym.Returns)
		if sym.Nonblocking {
			fmt.Print(" (nonblocking)")
		}
		fmt.Println()
	}
	return nil
}

func probeLibrary(path string, backend platform.Backend, cfg *config.Config, logger *zap.Logger) error {
	var table map[string]ffi.SymbolSpec
	if cfg.Symbols != "" {
		specs, err := ffi.LoadTable(cfg.Symbols)
		if err != nil {
			return err
		}
		table = specs
	}

	library, err := ffi.Dlopen(path, table,
		ffi.WithBackend(backend),
		ffi.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer library.Close()

	fmt.Printf("loaded %s, %d symbol(s) resolved\n", path, len(library.Symbols()))
	for name := range library.Symbols() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// maya2gltf converts Maya scene snapshots to glTF with skins.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/maya2gltf/internal/config"
	"github.com/Faultbox/maya2gltf/internal/export"
	"github.com/Faultbox/maya2gltf/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export", "x":
		cmdExport(args)
	case "inspect", "i":
		cmdInspect(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`maya2gltf - Maya scene snapshot to glTF exporter

Usage:
  maya2gltf <command> [options] <scene.yaml>...

Commands:
  export  <scene.yaml>...   Write a glTF file per snapshot
  inspect <scene.yaml>...   Print the extracted skins as YAML
  config  [-o file]         Save the effective settings as a config file

Run 'maya2gltf <command> -h' for the command's options.

Examples:
  maya2gltf export -of out scene.yaml
  maya2gltf export -of out -glb -sf 0.01 -bsf scene.yaml
  maya2gltf export -of out -imd cluster2 -dmy console scene.yaml
  maya2gltf inspect -spm -rsb scene.yaml
  maya2gltf config -of out -sf 0.01 -bsf`)
}

// setup parses the command's flags, loads the configuration and
// installs the global logger.
func setup(name string, args []string) (*config.Config, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.BindFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: maya2gltf %s [options] <scene.yaml>...\n", name)
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	opts := logger.Options{
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
		Console: os.Stderr,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	logger.InitWithOptions(opts)
	logger.Sugar.Debugf("Config: %+v", cfg)

	return cfg, fs.Args()
}

func cmdExport(args []string) {
	cfg, files := setup("export", args)
	defer logger.Sync()

	exp := export.New(cfg, logger.Log)
	failed := 0
	for _, path := range files {
		res, err := exp.ExportFile(path)
		if err != nil {
			logger.Error("export failed", zap.String("snapshot", path), zap.Error(err))
			failed++
			continue
		}
		fmt.Printf("%s -> %s (%d meshes, %d skinned, %d warnings)\n",
			path, res.Path, len(res.Meshes), res.Skinned(), res.Warnings)
	}

	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func cmdInspect(args []string) {
	cfg, files := setup("inspect", args)
	defer logger.Sync()

	exp := export.New(cfg, logger.Log)
	for i, path := range files {
		reports, err := exp.Inspect(path)
		if err != nil {
			logger.Error("inspect failed", zap.String("snapshot", path), zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		if i > 0 {
			fmt.Println("---")
		}
		fmt.Printf("# %s\n", path)
		if err := export.WriteReports(os.Stdout, reports); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags := config.BindFlags(fs)
	out := fs.String("o", "", "Write to this file instead of the user config directory")
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = filepath.Join(config.ConfigDir(), config.FileName)
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved configuration to %s\n", path)
}

// usdexport converts Ragnarok Online models, grounds and YAML scene
// fixtures into USD ASCII stages.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/midgard-usd/internal/config"
	"github.com/Faultbox/midgard-usd/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.FileConfig{
			Path:       cfg.Logging.LogFile,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	app := &app{cfg: cfg, log: logger.Log, out: os.Stdout}
	code := app.run(args[0], args[1:])
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func printUsage() {
	fmt.Println(`usdexport - Ragnarok Online to USD exporter

Usage:
  usdexport [flags] <command> [args]

Commands:
  export <input> [output.usda]   Convert a model, ground or fixture
  validate <input>               Translate in memory and report problems
  info <input>                   Show per-mesh statistics
  list [suffix]                  List exportable archive entries

Inputs are local files or archive paths such as data\model\house.rsm.

Flags:
  -config <file>      Config file (default ./usdexport.yaml)
  -units <name>       meters, centimeters, millimeters, inches
  -uv-map <name>      Preferred UV map
  -grf <a.grf,b.grf>  GRF archives to search
  -textures <dirs>    Texture directories searched before archives
  -output <dir>       Output directory
  -validate           Validate only, write nothing
  -debug              Debug logging

Examples:
  usdexport -grf data.grf export data\model\prontera\house01.rsm
  usdexport -units centimeters export scene.yaml scene.usda
  usdexport -grf data.grf list .gnd`)
}

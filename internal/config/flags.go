package config

import (
	"flag"
	"strings"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagUnits    = flag.String("units", "", "Output units: meters, centimeters, millimeters, inches")
	flagUVMap    = flag.String("uv-map", "", "Preferred UV map name")
	flagValidate = flag.Bool("validate", false, "Validate only, write nothing")
	flagGRF      = flag.String("grf", "", "Comma-separated GRF archives (replaces config)")
	flagTextures = flag.String("textures", "", "Comma-separated texture directories (replaces config)")
	flagOutput   = flag.String("output", "", "Output directory")
	flagLogFile  = flag.String("log-file", "", "Also log to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagUnits != "" {
		cfg.Export.Units = *flagUnits
	}
	if *flagUVMap != "" {
		cfg.Export.UVMap = *flagUVMap
	}
	if *flagValidate {
		cfg.Export.ValidateOnly = true
	}
	if *flagGRF != "" {
		cfg.Data.GRFPaths = splitList(*flagGRF)
	}
	if *flagTextures != "" {
		cfg.Data.TextureDirs = splitList(*flagTextures)
	}
	if *flagOutput != "" {
		cfg.Export.OutputDir = *flagOutput
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

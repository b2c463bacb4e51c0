package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/assets"
	"github.com/Faultbox/midgard-usd/internal/config"
	"github.com/Faultbox/midgard-usd/internal/export"
	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/internal/source"
)

var errUsage = errors.New("usage")

// app carries what every command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

// run executes one command and returns the process exit code.
func (a *app) run(command string, args []string) int {
	var err error
	switch command {
	case "export", "x":
		err = a.cmdExport(args)
	case "validate", "check":
		err = a.cmdValidate(args)
	case "info":
		err = a.cmdInfo(args)
	case "list", "ls":
		err = a.cmdList(args)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return 1
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "Usage: usdexport %s\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
	default:
		a.log.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

func usage(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

func (a *app) cmdExport(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("export <input> [output.usda]")
	}
	output := ""
	if len(args) == 2 {
		output = args[1]
	} else if !a.cfg.Export.ValidateOnly {
		output = filepath.Join(a.cfg.Export.OutputDir, source.BaseName(args[0])+".usda")
	}

	rep, err := a.export(args[0], output, a.cfg.Export.ValidateOnly)
	if err != nil {
		return err
	}
	if rep.ValidateOnly {
		fmt.Fprintf(a.out, "Validated %s: %d meshes, %d materials\n", args[0], len(rep.Meshes), len(rep.Materials))
	} else {
		fmt.Fprintf(a.out, "Wrote %s: %d meshes, %d materials\n", rep.Path, len(rep.Meshes), len(rep.Materials))
	}
	a.printIssues(rep)
	return nil
}

func (a *app) cmdValidate(args []string) error {
	if len(args) != 1 {
		return usage("validate <input>")
	}
	rep, err := a.export(args[0], "", true)
	if err != nil {
		return err
	}
	a.printIssues(rep)
	if !rep.OK() {
		return fmt.Errorf("%s: %d issues", args[0], len(rep.Issues))
	}
	fmt.Fprintf(a.out, "%s: OK\n", args[0])
	return nil
}

func (a *app) cmdInfo(args []string) error {
	if len(args) != 1 {
		return usage("info <input>")
	}
	rep, err := a.export(args[0], "", true)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Input:     %s (%s)\n", args[0], source.KindOf(args[0]))
	fmt.Fprintf(a.out, "Scale:     %g\n", rep.UnitScale)
	fmt.Fprintf(a.out, "Materials: %d\n", len(rep.Materials))
	fmt.Fprintln(a.out)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tPOINTS\tFACES\tCORNERS\tUVS\tMIRRORED")
	for _, m := range rep.Meshes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t%t\n", m.Path, m.Points, m.Faces, m.Corners, m.HasUVs, m.Mirrored)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.printIssues(rep)
	return nil
}

func (a *app) cmdList(args []string) (err error) {
	if len(args) > 1 {
		return usage("list [suffix]")
	}
	res, err := a.resolver()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, res.Close()) }()

	suffixes := []string{".rsm", ".gnd"}
	if len(args) == 1 {
		suffixes = []string{args[0]}
	}
	for _, suffix := range suffixes {
		for _, name := range res.List(suffix) {
			fmt.Fprintln(a.out, name)
		}
	}
	return nil
}

// export loads input and runs the exporter on it.
func (a *app) export(input, output string, validateOnly bool) (rep *export.Report, err error) {
	res, err := a.resolver()
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, res.Close()) }()

	sc, err := a.load(input, res)
	if err != nil {
		return nil, err
	}

	units, err := a.cfg.ExportUnits()
	if err != nil {
		return nil, err
	}
	if output != "" && !validateOnly {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return nil, err
		}
	}
	exp := export.New(export.Options{
		Units:        int(units),
		UVMap:        a.cfg.Export.UVMap,
		ValidateOnly: validateOnly,
		Logger:       a.log.Named("export"),
	})
	return exp.Export(sc, output)
}

// load reads input from disk, falling back to the configured sources.
func (a *app) load(input string, res *assets.Resolver) (scene.Scene, error) {
	data, err := os.ReadFile(input)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = res.Read(input)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	return source.Load(input, data, res, a.log.Named("source"))
}

// resolver opens the configured data sources. Archives that do not exist
// are skipped so the default config works without game data.
func (a *app) resolver() (*assets.Resolver, error) {
	var archives []string
	for _, p := range a.cfg.Data.GRFPaths {
		if _, err := os.Stat(p); err != nil {
			a.log.Debug("skipping archive", zap.String("path", p), zap.Error(err))
			continue
		}
		archives = append(archives, p)
	}
	return assets.NewResolver(a.cfg.Data.TextureDirs, archives)
}

func (a *app) printIssues(rep *export.Report) {
	for _, issue := range rep.Issues {
		fmt.Fprintf(a.out, "  ! %s\n", issue)
	}
}

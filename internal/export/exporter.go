// Package export translates a host scene into a USD stage.
package export

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-usd/internal/scene"
	"github.com/Faultbox/midgard-usd/pkg/usd"
)

// ErrNoOutput is returned when a file export is requested without a path.
var ErrNoOutput = errors.New("no output path")

// Fixed stage layout.
const (
	RootName  = "root"
	LooksName = "looks"
	UpAxis    = "Y"
)

// RootPath is the path of the root transform.
var RootPath = usd.Path("/" + RootName)

// LooksPath is the scope holding every material.
var LooksPath = RootPath + "/" + LooksName

// Options configures an Exporter.
type Options struct {
	// Units is the raw unit preference (see ResolveScale).
	Units int
	// UVMap is the UV channel tried before the mesh's first one.
	UVMap string
	// ValidateOnly runs the translation in memory and writes nothing.
	ValidateOnly bool
	Logger       *zap.Logger
}

// MeshStats summarizes one written mesh.
type MeshStats struct {
	Name     string
	Path     usd.Path
	Points   int
	Faces    int
	Corners  int
	HasUVs   bool
	Mirrored bool
}

// Issue is a non-fatal problem found during export.
type Issue struct {
	Subject string
	Message string
}

func (i Issue) String() string {
	return i.Subject + ": " + i.Message
}

// Report describes a finished export.
type Report struct {
	Path         string
	UnitScale    float64
	ValidateOnly bool
	Meshes       []MeshStats
	Materials    []usd.Path
	Issues       []Issue
}

// OK reports whether the export finished without issues.
func (r *Report) OK() bool { return len(r.Issues) == 0 }

// Exporter writes host scenes as USD stages. An Exporter is not safe for
// concurrent use.
type Exporter struct {
	opts Options
	log  *zap.Logger

	stage     *usd.Stage
	scale     float64
	groups    *FaceGroups
	usedPaths map[usd.Path]bool
	report    *Report
}

// New creates an exporter.
func New(opts Options) *Exporter {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{opts: opts, log: log}
}

// Export translates sc and writes it to path. Only a failure to create the
// stage is returned as an error together with a write failure on close;
// everything else is recorded in the report and skipped.
func (e *Exporter) Export(sc scene.Scene, path string) (rep *Report, err error) {
	stage, err := e.openStage(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := stage.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("finalizing stage: %w", cerr))
		}
	}()

	e.begin(stage, path)
	e.log.Info("export started",
		zap.String("path", path),
		zap.Bool("validateOnly", e.opts.ValidateOnly),
		zap.String("units", UnitsFromPreference(e.opts.Units).String()),
		zap.Float64("scale", e.scale))

	root, err := usd.DefineXform(stage, RootPath)
	if err != nil {
		return nil, fmt.Errorf("defining root: %w", err)
	}
	stage.SetMetadata("defaultPrim", root.Name())
	stage.SetMetadata("upAxis", UpAxis)
	stage.SetMetadata("metersPerUnit", 1/e.scale)

	for m, ok := sc.NextMesh(); ok; m, ok = sc.NextMesh() {
		stats, merr := e.emitMesh(m)
		if merr != nil {
			e.issue(m.Name(), merr.Error())
			continue
		}
		e.report.Meshes = append(e.report.Meshes, stats)
	}

	e.emitMaterials(sc)

	if e.opts.ValidateOnly {
		e.validate()
	}

	e.log.Info("export finished",
		zap.Int("meshes", len(e.report.Meshes)),
		zap.Int("materials", len(e.report.Materials)),
		zap.Int("issues", len(e.report.Issues)))
	return e.report, nil
}

// Stage returns the stage of the last export, closed once Export returns.
func (e *Exporter) Stage() *usd.Stage { return e.stage }

func (e *Exporter) openStage(path string) (*usd.Stage, error) {
	if e.opts.ValidateOnly {
		return usd.New(), nil
	}
	if path == "" {
		return nil, ErrNoOutput
	}
	return usd.CreateNew(path)
}

func (e *Exporter) begin(stage *usd.Stage, path string) {
	e.stage = stage
	e.scale = ResolveScale(e.opts.Units)
	e.groups = NewFaceGroups()
	e.usedPaths = map[usd.Path]bool{LooksPath: true}
	e.report = &Report{
		Path:         path,
		UnitScale:    e.scale,
		ValidateOnly: e.opts.ValidateOnly,
	}
	if e.opts.ValidateOnly {
		e.report.Path = ""
	}
}

func (e *Exporter) issue(subject, msg string, fields ...zap.Field) {
	e.report.Issues = append(e.report.Issues, Issue{Subject: subject, Message: msg})
	e.log.Warn(msg, append(fields, zap.String("subject", subject))...)
}

// childPath returns a free child path of parent for the host name, adding
// a numeric suffix on collision. A sanitized name that is still not a valid
// prim name is repaired and recorded as an issue.
func (e *Exporter) childPath(parent usd.Path, hostName string) (usd.Path, error) {
	base := Sanitize(hostName)
	if !usd.ValidPrimName(base) {
		fixed := repairName(base)
		e.issue(hostName, fmt.Sprintf("invalid prim name %q, using %q", base, fixed))
		base = fixed
	}
	name := base
	for i := 1; ; i++ {
		p, err := parent.AppendChild(name)
		if err != nil {
			return "", err
		}
		if !e.usedPaths[p] {
			e.usedPaths[p] = true
			return p, nil
		}
		name = base + "_" + strconv.Itoa(i)
	}
}

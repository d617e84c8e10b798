// Package geodesy implements coordinate transforms on top of the PROJ
// library (cgo, requires libproj).
//
// All calls go through a single PROJ context, which is not safe for
// concurrent use, so Proj serialises them with a mutex. One pipeline is
// built and cached per source/target pair.
package geodesy

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pebbe/proj/v5"
)

// Definitions supplies PROJ strings for codes the local PROJ database may not
// know. Satisfied by *crs.Catalog.
type Definitions interface {
	Definition(code int) (string, bool)
}

type pair struct{ src, dst int }

// Proj transforms points between EPSG codes. Input and output are longitude
// or X first; geographic systems use degrees. Datum shifts are applied when a
// definition carries +towgs84 parameters.
type Proj struct {
	mu        sync.Mutex
	ctx       *proj.Context
	defs      Definitions
	pipelines map[pair]*proj.PJ
	valid     map[int]bool
	closed    bool
}

// New opens a PROJ context. defs may be nil.
func New(defs Definitions) *Proj {
	return &Proj{
		ctx:       proj.NewContext(),
		defs:      defs,
		pipelines: make(map[pair]*proj.PJ),
		valid:     make(map[int]bool),
	}
}

// Close releases every cached pipeline and the context.
func (p *Proj) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for k, pj := range p.pipelines {
		pj.Close()
		delete(p.pipelines, k)
	}
	p.ctx.Close()
	p.closed = true
}

// ValidCRS reports whether PROJ can build code. Results are cached.
func (p *Proj) ValidCRS(code int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || code <= 0 {
		return false
	}
	if ok, seen := p.valid[code]; seen {
		return ok
	}
	_, err := p.describe(code)
	p.valid[code] = err == nil
	return err == nil
}

// Transform converts one point from src to dst.
func (p *Proj) Transform(src, dst int, x, y float64) (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, 0, fmt.Errorf("geodesy: transformer closed")
	}
	pj, err := p.pipeline(src, dst)
	if err != nil {
		return 0, 0, err
	}

	u, v, _, _, err := pj.Trans(proj.Fwd, x, y, 0, 0)
	if err != nil {
		// PROJ keeps the error state on the object; rebuild it next time
		pj.Close()
		delete(p.pipelines, pair{src, dst})
		return 0, 0, fmt.Errorf("EPSG:%d to EPSG:%d: %w", src, dst, err)
	}
	return u, v, nil
}

// pipeline returns the cached transform for src to dst, building it on first
// use. Caller holds p.mu.
func (p *Proj) pipeline(src, dst int) (*proj.PJ, error) {
	key := pair{src, dst}
	if pj, ok := p.pipelines[key]; ok {
		return pj, nil
	}

	from, err := p.describe(src)
	if err != nil {
		return nil, err
	}
	to, err := p.describe(dst)
	if err != nil {
		return nil, err
	}

	pj, err := p.ctx.Create(PipelineDefinition(from, to))
	if err != nil {
		return nil, fmt.Errorf("build pipeline EPSG:%d to EPSG:%d: %w", src, dst, err)
	}
	p.pipelines[key] = pj
	return pj, nil
}

// System is a coordinate system resolved for pipeline building.
type System struct {
	Definition string // PROJ string
	Geographic bool   // angular coordinates in degrees
}

// describe resolves code to a PROJ definition and reports whether it is
// geographic. Caller holds p.mu.
func (p *Proj) describe(code int) (System, error) {
	def := fmt.Sprintf("+init=epsg:%d", code)
	if p.defs != nil {
		if d, ok := p.defs.Definition(code); ok {
			def = d
		}
	}

	pj, err := p.ctx.Create(def)
	if err != nil {
		return System{}, fmt.Errorf("EPSG:%d: %w", code, err)
	}
	defer pj.Close()

	info, err := pj.Info()
	if err != nil {
		return System{}, fmt.Errorf("EPSG:%d: %w", code, err)
	}
	if strings.HasPrefix(def, "+init=") {
		// PROJ reports the parameters the init file expanded to
		if expanded := ExpandedDefinition(info.Definition); expanded != "" {
			def = expanded
		}
	}
	return System{Definition: def, Geographic: IsGeographic(info.ID, info.Definition+" "+def)}, nil
}

// ExpandedDefinition turns the definition PROJ reports for an object into a
// standalone PROJ string without the init reference. It returns "" when the
// report names no projection.
func ExpandedDefinition(reported string) string {
	var out []string
	hasProj := false
	for _, f := range strings.Fields(reported) {
		f = "+" + strings.TrimPrefix(f, "+")
		switch {
		case strings.HasPrefix(f, "+init="), f == "+type=crs":
			continue
		case strings.HasPrefix(f, "+proj="):
			hasProj = true
		}
		out = append(out, f)
	}
	if !hasProj {
		return ""
	}
	return strings.Join(out, " ")
}

var geographicIDs = []string{"longlat", "latlong", "lonlat", "latlon"}

// IsGeographic reports whether a PROJ operation id or definition describes
// angular (longitude/latitude) coordinates.
func IsGeographic(id, definition string) bool {
	for _, g := range geographicIDs {
		if id == g || strings.Contains(definition, "proj="+g) {
			return true
		}
	}
	return false
}

// PipelineDefinition chains the inverse of the source definition with the
// target definition. Geographic ends get unit conversions so callers work in
// degrees while PROJ works in radians.
//
// When the datums differ, the chain goes through geocentric coordinates:
// source ellipsoid to WGS 84 with the source Helmert parameters, then to
// the target ellipsoid with the inverse of the target's. A side without
// +towgs84 is taken to be on WGS 84.
func PipelineDefinition(src, dst System) string {
	var b strings.Builder
	b.WriteString("+proj=pipeline")
	if src.Geographic {
		b.WriteString(" +step +proj=unitconvert +xy_in=deg +xy_out=rad")
	}
	b.WriteString(" +step +inv " + stepArgs(src.Definition))

	srcShift, dstShift := toWGS84(src.Definition), toWGS84(dst.Definition)
	if !sameShift(srcShift, dstShift) {
		b.WriteString(" +step +proj=cart " + ellipsoidArgs(src.Definition, srcShift))
		if srcShift != nil {
			b.WriteString(" +step " + helmertArgs(srcShift))
		}
		if dstShift != nil {
			b.WriteString(" +step +inv " + helmertArgs(dstShift))
		}
		b.WriteString(" +step +inv +proj=cart " + ellipsoidArgs(dst.Definition, dstShift))
	}

	b.WriteString(" +step " + stepArgs(dst.Definition))
	if dst.Geographic {
		b.WriteString(" +step +proj=unitconvert +xy_in=rad +xy_out=deg")
	}
	return b.String()
}

// param returns the value of +key= in def.
func param(def, key string) (string, bool) {
	for _, f := range strings.Fields(def) {
		if v, ok := strings.CutPrefix(f, "+"+key+"="); ok {
			return v, true
		}
	}
	return "", false
}

// toWGS84 returns the +towgs84 values of def, or nil when there are none or
// all are zero.
func toWGS84(def string) []string {
	v, ok := param(def, "towgs84")
	if !ok {
		return nil
	}
	values := strings.Split(v, ",")
	for _, x := range values {
		if f, err := strconv.ParseFloat(x, 64); err != nil || f != 0 {
			return values
		}
	}
	return nil
}

func sameShift(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// helmertArgs turns +towgs84 values into a Helmert step. Seven values use
// the position vector convention, as +towgs84 does.
func helmertArgs(values []string) string {
	names := []string{"x", "y", "z", "rx", "ry", "rz", "s"}
	var b strings.Builder
	b.WriteString("+proj=helmert")
	for i, v := range values {
		if i >= len(names) {
			break
		}
		b.WriteString(" +" + names[i] + "=" + v)
	}
	if len(values) > 3 {
		b.WriteString(" +convention=position_vector")
	}
	return b.String()
}

var ellipsoidKeys = []string{"ellps", "datum", "a", "b", "rf", "f", "R"}

// ellipsoidArgs returns the ellipsoid parameters of def for a cart step. A
// system without a datum shift is on WGS 84, whatever ellipsoid its
// projection uses.
func ellipsoidArgs(def string, shift []string) string {
	if shift == nil {
		return "+ellps=WGS84"
	}
	var args []string
	for _, k := range ellipsoidKeys {
		if v, ok := param(def, k); ok {
			if k == "datum" {
				// cart takes an ellipsoid, not a datum
				continue
			}
			args = append(args, "+"+k+"="+v)
		}
	}
	if len(args) == 0 {
		return "+ellps=WGS84"
	}
	return strings.Join(args, " ")
}

// stepArgs drops flags that only make sense for a standalone definition.
// Datum shifts are handled by PipelineDefinition.
func stepArgs(def string) string {
	fields := strings.Fields(def)
	out := fields[:0]
	for _, f := range fields {
		switch {
		case f == "+no_defs", f == "+type=crs", f == "+wktext":
			continue
		case strings.HasPrefix(f, "+towgs84="), strings.HasPrefix(f, "+nadgrids="):
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

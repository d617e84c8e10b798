package geodesy

import (
	"math"
	"strings"
	"testing"

	"github.com/JonMunkholm/coordgrid/internal/crs"
)

type staticDefs map[int]string

func (d staticDefs) Definition(code int) (string, bool) {
	def, ok := d[code]
	return def, ok
}

var testDefs = staticDefs{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs",
}

const pulkovo = "+proj=longlat +ellps=krass +towgs84=23.92,-141.27,-80.9,0,0.35,0.82,-0.12 +no_defs"

// ============================================================================
// Pipeline Tests
// ============================================================================

func TestPipelineDefinition(t *testing.T) {
	tests := []struct {
		name     string
		src, dst System
		want     string
	}{
		{
			name: "same datum",
			src:  System{Definition: "+proj=longlat +datum=WGS84 +no_defs", Geographic: true},
			dst:  System{Definition: "+proj=merc +ellps=WGS84"},
			want: "+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad" +
				" +step +inv +proj=longlat +datum=WGS84" +
				" +step +proj=merc +ellps=WGS84",
		},
		{
			name: "shift to WGS 84",
			src:  System{Definition: pulkovo, Geographic: true},
			dst:  System{Definition: "+proj=longlat +datum=WGS84 +no_defs", Geographic: true},
			want: "+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad" +
				" +step +inv +proj=longlat +ellps=krass" +
				" +step +proj=cart +ellps=krass" +
				" +step +proj=helmert +x=23.92 +y=-141.27 +z=-80.9 +rx=0 +ry=0.35 +rz=0.82 +s=-0.12 +convention=position_vector" +
				" +step +inv +proj=cart +ellps=WGS84" +
				" +step +proj=longlat +datum=WGS84" +
				" +step +proj=unitconvert +xy_in=rad +xy_out=deg",
		},
		{
			name: "shift from WGS 84 to projected",
			src:  System{Definition: "+proj=longlat +datum=WGS84", Geographic: true},
			dst:  System{Definition: "+proj=tmerc +lon_0=39 +x_0=7500000 +ellps=krass +towgs84=23.92,-141.27,-80.9 +units=m"},
			want: "+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad" +
				" +step +inv +proj=longlat +datum=WGS84" +
				" +step +proj=cart +ellps=WGS84" +
				" +step +inv +proj=helmert +x=23.92 +y=-141.27 +z=-80.9" +
				" +step +inv +proj=cart +ellps=krass" +
				" +step +proj=tmerc +lon_0=39 +x_0=7500000 +ellps=krass +units=m",
		},
		{
			name: "same shift on both sides",
			src:  System{Definition: pulkovo, Geographic: true},
			dst:  System{Definition: "+proj=tmerc +lon_0=39 +ellps=krass +towgs84=23.92,-141.27,-80.9,0,0.35,0.82,-0.12"},
			want: "+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad" +
				" +step +inv +proj=longlat +ellps=krass" +
				" +step +proj=tmerc +lon_0=39 +ellps=krass",
		},
		{
			name: "zero shift is WGS 84",
			src:  System{Definition: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0", Geographic: true},
			dst:  System{Definition: "+proj=longlat +datum=WGS84", Geographic: true},
			want: "+proj=pipeline +step +proj=unitconvert +xy_in=deg +xy_out=rad" +
				" +step +inv +proj=longlat +ellps=GRS80" +
				" +step +proj=longlat +datum=WGS84" +
				" +step +proj=unitconvert +xy_in=rad +xy_out=deg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PipelineDefinition(tt.src, tt.dst); got != tt.want {
				t.Errorf("PipelineDefinition() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestExpandedDefinition(t *testing.T) {
	tests := []struct {
		reported string
		want     string
	}{
		{"init=epsg:4326 proj=longlat datum=WGS84 no_defs", "+proj=longlat +datum=WGS84 +no_defs"},
		{"+proj=utm +zone=37 +ellps=WGS84 +type=crs", "+proj=utm +zone=37 +ellps=WGS84"},
		{"init=epsg:4326", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandedDefinition(tt.reported); got != tt.want {
			t.Errorf("ExpandedDefinition(%q) = %q, want %q", tt.reported, got, tt.want)
		}
	}
}

func TestIsGeographic(t *testing.T) {
	tests := []struct {
		id, def string
		want    bool
	}{
		{"longlat", "", true},
		{"", "+proj=latlong +datum=WGS84", true},
		{"merc", "+proj=merc +ellps=WGS84", false},
		{"utm", "+proj=utm +zone=42", false},
	}
	for _, tt := range tests {
		if got := IsGeographic(tt.id, tt.def); got != tt.want {
			t.Errorf("IsGeographic(%q, %q) = %v, want %v", tt.id, tt.def, got, tt.want)
		}
	}
}

// ============================================================================
// Transform Tests (libproj)
// ============================================================================

func assertNear(t *testing.T, what string, gotX, gotY, wantX, wantY, tol float64) {
	t.Helper()
	if math.Abs(gotX-wantX) > tol || math.Abs(gotY-wantY) > tol {
		t.Errorf("%s = %.8f, %.8f; want %.8f, %.8f (±%g)", what, gotX, gotY, wantX, wantY, tol)
	}
}

func TestProj_DefaultCatalog(t *testing.T) {
	p := New(crs.Default())
	defer p.Close()

	for _, e := range crs.Default().Entries() {
		if !p.ValidCRS(e.Code) {
			t.Errorf("ValidCRS(%d) = false for a built-in system", e.Code)
		}
	}

	tests := []struct {
		name       string
		src, dst   int
		x, y       float64
		wantX      float64
		wantY      float64
		tolerance  float64
		roundTrip  bool
		roundTripT float64
	}{
		{
			name: "WGS 84 to Web Mercator",
			src:  4326, dst: 3857,
			x: 10, y: 50,
			wantX: 1113194.9079, wantY: 6446275.8410,
			tolerance: 0.01,
			roundTrip: true, roundTripT: 1e-9,
		},
		{
			// EPSG:1267 seven-parameter shift, Moscow
			name: "Pulkovo 1942 to WGS 84",
			src:  4284, dst: 4326,
			x: 37.6173, y: 55.7558,
			wantX: 37.61542638, wantY: 55.75583648,
			tolerance: 1e-6,
			roundTrip: true, roundTripT: 1e-8,
		},
		{
			name: "central meridian of UTM zone 37N",
			src:  4326, dst: 32637,
			x: 39, y: 0,
			wantX: 500000, wantY: 0,
			tolerance: 1e-3,
			roundTrip: true, roundTripT: 1e-9,
		},
		{
			name: "central meridian of Gauss-Kruger zone 7",
			src:  4284, dst: 28407,
			x: 39, y: 0,
			wantX: 7500000, wantY: 0,
			tolerance: 1e-3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := p.Transform(tt.src, tt.dst, tt.x, tt.y)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			assertNear(t, "Transform()", x, y, tt.wantX, tt.wantY, tt.tolerance)

			if !tt.roundTrip {
				return
			}
			bx, by, err := p.Transform(tt.dst, tt.src, x, y)
			if err != nil {
				t.Fatalf("inverse Transform() error = %v", err)
			}
			assertNear(t, "round trip", bx, by, tt.x, tt.y, tt.roundTripT)
		})
	}
}

// Codes without a stored definition are resolved by PROJ itself.
func TestProj_InitDefinitions(t *testing.T) {
	p := New(nil)
	defer p.Close()

	if !p.ValidCRS(4326) || !p.ValidCRS(3857) {
		t.Skip("PROJ database cannot resolve EPSG codes")
	}

	x, y, err := p.Transform(4326, 3857, 10, 50)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	assertNear(t, "Transform()", x, y, 1113194.9079, 6446275.8410, 0.01)
}

func TestProj_Identity(t *testing.T) {
	p := New(testDefs)
	defer p.Close()

	x, y, err := p.Transform(4326, 4326, 10.5, 20.1)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	assertNear(t, "identity Transform()", x, y, 10.5, 20.1, 1e-12)
}

func TestProj_ValidCRS(t *testing.T) {
	p := New(staticDefs{4326: testDefs[4326], 1: "+proj=no_such_projection"})
	defer p.Close()

	if !p.ValidCRS(4326) {
		t.Error("ValidCRS(4326) = false")
	}
	if p.ValidCRS(1) {
		t.Error("ValidCRS() = true for an unknown projection")
	}
	if p.ValidCRS(-5) {
		t.Error("ValidCRS(-5) = true")
	}
}

func TestProj_Closed(t *testing.T) {
	p := New(testDefs)
	p.Close()
	p.Close()

	if _, _, err := p.Transform(4326, 3857, 0, 0); err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("Transform() after Close error = %v", err)
	}
	if p.ValidCRS(4326) {
		t.Error("ValidCRS() after Close = true")
	}
}

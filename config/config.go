// Package config loads the conversion settings. Values come from, in
// increasing priority, built-in defaults, an optional config file,
// DXFCAM_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/dxfcam/gcode"
	"github.com/paulhankin/dxfcam/paths"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix is prepended to setting names to form environment variables.
const EnvPrefix = "DXFCAM"

// Config holds every setting of a conversion.
type Config struct {
	OffsetX float64 `mapstructure:"offset_x"`
	OffsetY float64 `mapstructure:"offset_y"`
	Scale   float64 `mapstructure:"scale"`
	FlipY   bool    `mapstructure:"flip_y"`

	FeedRate   float64 `mapstructure:"feed_rate"`
	PlungeRate float64 `mapstructure:"plunge_rate"`
	ToolNumber int     `mapstructure:"tool_number"`
	CutZ       float64 `mapstructure:"cut_z"`
	SafeZ      float64 `mapstructure:"safe_z"`
	Precision  int     `mapstructure:"precision"`
	ReturnHome bool    `mapstructure:"return_home"`

	// Start and End are "x,y" machine points, or empty for none.
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`

	FlattenTolerance float64  `mapstructure:"flatten_tolerance"`
	MaxDepth         int      `mapstructure:"max_depth"`
	ArcFitting       bool     `mapstructure:"arc_fitting"`
	OptimizeTravel   bool     `mapstructure:"optimize_travel"`
	Layers           []string `mapstructure:"layers"`

	ArcStepDeg      float64 `mapstructure:"arc_step_deg"`
	PreviewSimplify float64 `mapstructure:"preview_simplify"`
}

// Default returns the built-in settings.
func Default() Config {
	m := gcode.DefaultConfig()
	return Config{
		Scale:            1,
		FeedRate:         m.FeedRate,
		PlungeRate:       m.PlungeRate,
		ToolNumber:       m.Tool,
		CutZ:             m.CutZ,
		SafeZ:            m.SafeZ,
		Precision:        m.Precision,
		FlattenTolerance: paths.DefaultTolerance,
		MaxDepth:         paths.DefaultMaxDepth,
		ArcStepDeg:       5,
	}
}

type setting struct {
	name  string
	usage string
	def   func(Config) interface{}
}

var settings = []setting{
	{"offset_x", "machine X of the drawing origin", func(c Config) interface{} { return c.OffsetX }},
	{"offset_y", "machine Y of the drawing origin", func(c Config) interface{} { return c.OffsetY }},
	{"scale", "drawing units to machine units", func(c Config) interface{} { return c.Scale }},
	{"flip_y", "mirror the drawing in the X axis", func(c Config) interface{} { return c.FlipY }},
	{"feed_rate", "cutting feed rate", func(c Config) interface{} { return c.FeedRate }},
	{"plunge_rate", "plunge feed rate", func(c Config) interface{} { return c.PlungeRate }},
	{"tool_number", "tool selected in the program header", func(c Config) interface{} { return c.ToolNumber }},
	{"cut_z", "Z while cutting", func(c Config) interface{} { return c.CutZ }},
	{"safe_z", "Z while travelling", func(c Config) interface{} { return c.SafeZ }},
	{"precision", "decimals written for coordinates", func(c Config) interface{} { return c.Precision }},
	{"return_home", "rapid to X0 Y0 at the end", func(c Config) interface{} { return c.ReturnHome }},
	{"start", "x,y to rapid to before the first cut", func(c Config) interface{} { return c.Start }},
	{"end", "x,y to rapid to at the end, instead of home", func(c Config) interface{} { return c.End }},
	{"flatten_tolerance", "largest distance, in machine units, between a curve and its flattening", func(c Config) interface{} { return c.FlattenTolerance }},
	{"max_depth", "subdivision limit when flattening", func(c Config) interface{} { return c.MaxDepth }},
	{"arc_fitting", "replace flattened runs on a circle with arcs", func(c Config) interface{} { return c.ArcFitting }},
	{"optimize_travel", "reorder contours to shorten travel", func(c Config) interface{} { return c.OptimizeTravel }},
	{"layers", "only convert entities on these layers", func(c Config) interface{} { return c.Layers }},
	{"arc_step_deg", "largest angle between simulated arc samples", func(c Config) interface{} { return c.ArcStepDeg }},
	{"preview_simplify", "simplification tolerance for preview strokes (0 for none)", func(c Config) interface{} { return c.PreviewSimplify }},
}

// RegisterFlags adds a flag for every setting to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	for _, s := range settings {
		switch v := s.def(d).(type) {
		case float64:
			fs.Float64(s.name, v, s.usage)
		case int:
			fs.Int(s.name, v, s.usage)
		case bool:
			fs.Bool(s.name, v, s.usage)
		case string:
			fs.String(s.name, v, s.usage)
		case []string:
			fs.StringSlice(s.name, v, s.usage)
		default:
			panic(fmt.Sprintf("config: setting %s has type %T", s.name, v))
		}
	}
}

// Load reads the settings. file may be empty, and flags may be nil.
// Only flags that were set on the command line override other sources.
func Load(flags *pflag.FlagSet, file string) (Config, error) {
	v := viper.New()
	d := Default()
	for _, s := range settings {
		v.SetDefault(s.name, s.def(d))
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		for _, s := range settings {
			if f := flags.Lookup(s.name); f != nil {
				if err := v.BindPFlag(s.name, f); err != nil {
					return Config{}, err
				}
			}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// parsePoint reads an "x,y" point. The empty string is no point.
func parsePoint(s string) (*paths.Vec2, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("can't parse %q as x,y", s)
	}
	var p paths.Vec2
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("can't parse %q as x,y", s)
		}
		p[i] = f
	}
	return &p, nil
}

// Validate checks that the settings describe a usable conversion.
func (c Config) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	switch {
	case !(c.Scale > 0):
		return bad("scale %g must be positive", c.Scale)
	case !(c.FlattenTolerance > 0):
		return bad("flatten_tolerance %g must be positive", c.FlattenTolerance)
	case !(c.FeedRate > 0):
		return bad("feed_rate %g must be positive", c.FeedRate)
	case !(c.PlungeRate > 0):
		return bad("plunge_rate %g must be positive", c.PlungeRate)
	case c.SafeZ <= c.CutZ:
		return bad("safe_z %g must be above cut_z %g", c.SafeZ, c.CutZ)
	case c.Precision < 0 || c.Precision > 6:
		return bad("precision %d outside 0..6", c.Precision)
	case c.MaxDepth < 1 || c.MaxDepth > 32:
		return bad("max_depth %d outside 1..32", c.MaxDepth)
	case !(c.ArcStepDeg > 0):
		return bad("arc_step_deg %g must be positive", c.ArcStepDeg)
	case c.PreviewSimplify < 0:
		return bad("preview_simplify %g is negative", c.PreviewSimplify)
	}
	if _, err := parsePoint(c.Start); err != nil {
		return bad("start: %v", err)
	}
	if _, err := parsePoint(c.End); err != nil {
		return bad("end: %v", err)
	}
	return nil
}

// Transform returns the drawing to machine transform.
func (c Config) Transform() paths.Transform {
	return paths.Transform{OffsetX: c.OffsetX, OffsetY: c.OffsetY, Scale: c.Scale, FlipY: c.FlipY}
}

// Flattener returns the curve flattener. Curves are flattened before
// they are transformed, so the tolerance is converted to drawing units.
func (c Config) Flattener() paths.Flattener {
	return paths.Flattener{Tolerance: c.FlattenTolerance / c.Scale, MaxDepth: c.MaxDepth}
}

// Machine returns the emitter settings. Points that don't parse are
// left unset; Validate reports them.
func (c Config) Machine() gcode.Config {
	start, _ := parsePoint(c.Start)
	end, _ := parsePoint(c.End)
	return gcode.Config{
		FeedRate:   c.FeedRate,
		PlungeRate: c.PlungeRate,
		Tool:       c.ToolNumber,
		CutZ:       c.CutZ,
		SafeZ:      c.SafeZ,
		Precision:  c.Precision,
		Start:      start,
		End:        end,
		ReturnHome: c.ReturnHome,
	}
}

// Sim returns the simulator settings.
func (c Config) Sim() gcode.SimConfig {
	return gcode.SimConfig{ArcStep: mgl64.DegToRad(c.ArcStepDeg)}
}

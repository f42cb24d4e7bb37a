package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/profile"
)

// ParamOptions holds the parameter flags shared by simulate, timing and sweep.
type ParamOptions struct {
	Profile string

	TidalVolumePercent float64
	BreathsPerMinute   float64
	InspExpRatio       float64
	TriggerPressure    float64
	PEEP               float64
	HoldPercent        float64
	VolumeConversion   float64
	TimeStep           float64
	Compliance         float64
	Resistance         float64
	Derivation         string
}

// paramFlag binds one flag name to its Overrides field.
type paramFlag struct {
	name  string
	usage string
	value func(*ParamOptions) *float64
	set   func(*breath.Overrides, *float64)
}

var paramFlags = []paramFlag{
	{"vt", "tidal volume, percent of bag compression (0, 100]",
		func(o *ParamOptions) *float64 { return &o.TidalVolumePercent },
		func(b *breath.Overrides, v *float64) { b.TidalVolumePercent = v }},
	{"bpm", "breaths per minute [8, 30]",
		func(o *ParamOptions) *float64 { return &o.BreathsPerMinute },
		func(b *breath.Overrides, v *float64) { b.BreathsPerMinute = v }},
	{"ie", "IE in the 1:IE ratio [1, 4]",
		func(o *ParamOptions) *float64 { return &o.InspExpRatio },
		func(b *breath.Overrides, v *float64) { b.InspExpRatio = v }},
	{"trigger", "trigger pressure, cm H2O",
		func(o *ParamOptions) *float64 { return &o.TriggerPressure },
		func(b *breath.Overrides, v *float64) { b.TriggerPressure = v }},
	{"peep", "positive end-expiratory pressure, cm H2O",
		func(o *ParamOptions) *float64 { return &o.PEEP },
		func(b *breath.Overrides, v *float64) { b.PEEP = v }},
	{"hold", "inspiratory hold, percent [0, 100)",
		func(o *ParamOptions) *float64 { return &o.HoldPercent },
		func(b *breath.Overrides, v *float64) { b.HoldPercent = v }},
	{"vcon", "liters delivered per percent of compression",
		func(o *ParamOptions) *float64 { return &o.VolumeConversion },
		func(b *breath.Overrides, v *float64) { b.VolumeConversion = v }},
	{"dt", "time grid step, seconds",
		func(o *ParamOptions) *float64 { return &o.TimeStep },
		func(b *breath.Overrides, v *float64) { b.TimeStep = v }},
	{"compliance", "lung compliance, L/cm H2O",
		func(o *ParamOptions) *float64 { return &o.Compliance },
		func(b *breath.Overrides, v *float64) { b.Compliance = v }},
	{"resistance", "airway resistance, cm H2O/(L/s)",
		func(o *ParamOptions) *float64 { return &o.Resistance },
		func(b *breath.Overrides, v *float64) { b.Resistance = v }},
}

// addParamFlags registers the profile and parameter flags on cmd.
// Defaults shown in help are the reference pattern's.
func addParamFlags(cmd *cobra.Command, opts *ParamOptions) {
	defaults := breath.DefaultParameters()
	defaultValues := map[string]float64{
		"vt":         defaults.TidalVolumePercent,
		"bpm":        defaults.BreathsPerMinute,
		"ie":         defaults.InspExpRatio,
		"trigger":    defaults.TriggerPressure,
		"peep":       defaults.PEEP,
		"hold":       defaults.HoldPercent,
		"vcon":       defaults.VolumeConversion,
		"dt":         defaults.TimeStep,
		"compliance": defaults.Compliance,
		"resistance": defaults.Resistance,
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "parameter profile (.yaml, .yml or .cue)")
	for _, f := range paramFlags {
		cmd.Flags().Float64Var(f.value(opts), f.name, defaultValues[f.name], f.usage)
	}
	cmd.Flags().StringVar(&opts.Derivation, "derivation", string(defaults.Derivation),
		"hold derivation (inhale_hold|inhale)")
}

// flagOverrides returns overrides for the flags the user actually set.
func flagOverrides(cmd *cobra.Command, opts *ParamOptions) (breath.Overrides, error) {
	var o breath.Overrides
	for _, f := range paramFlags {
		if cmd.Flags().Changed(f.name) {
			f.set(&o, breath.Ptr(*f.value(opts)))
		}
	}
	if cmd.Flags().Changed("derivation") {
		d, err := breath.ParseDerivation(opts.Derivation)
		if err != nil {
			return breath.Overrides{}, err
		}
		o.Derivation = &d
	}
	return o, nil
}

// resolved is the outcome of layering defaults, profile and flags.
type resolved struct {
	Params  breath.Parameters
	Breaths int
	Profile *profile.Profile // nil when no profile applies
}

// resolveParams layers defaults, then the profile (--profile, else the
// configured profile), then explicit flags. Breaths is the profile's count,
// or 1.
//
// Profile errors are command errors; invalid parameters are failures.
func resolveParams(cmd *cobra.Command, root *RootOptions, opts *ParamOptions) (resolved, error) {
	cfg, err := root.config()
	if err != nil {
		return resolved{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	path := opts.Profile
	if path == "" {
		path = cfg.ProfilePath
	}

	var out resolved
	var layered breath.Overrides
	if path != "" {
		p, err := profile.Load(path)
		if err != nil {
			return resolved{}, WrapExitError(ExitCommandError, "failed to load profile", err)
		}
		out.Profile = p
		layered = p.Overrides()
		slog.Debug("profile loaded", "path", path, "name", p.Name)
	}

	flags, err := flagOverrides(cmd, opts)
	if err != nil {
		return resolved{}, WrapExitError(ExitCommandError, "invalid flag", err)
	}
	layered = layered.Merge(flags)

	out.Params, err = breath.Resolve(layered)
	if err != nil {
		return resolved{}, WrapExitError(ExitFailure, "invalid parameters", err)
	}

	out.Breaths = 1
	if out.Profile != nil {
		out.Breaths = out.Profile.BreathCount(1)
	}
	return out, nil
}

// errorCode returns the code reported for err in JSON output.
func errorCode(err error) string {
	var be *breath.Error
	if errors.As(err, &be) {
		return string(be.Code)
	}
	var le *profile.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return fmt.Sprintf("EXIT_%d", GetExitCode(err))
}

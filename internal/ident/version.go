package ident

// Version constants for the breath model and the simulator binary.
const (
	// ModelVersion changes whenever the phase equations or timing rules
	// change in a way that alters sample values.
	ModelVersion = "1"

	// EngineVersion is the ventsim release version.
	EngineVersion = "0.1.0"
)

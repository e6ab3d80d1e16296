package ir

// Version constants for the interface schema and generator.
const (
	// IRVersion is the module interface schema version.
	IRVersion = "1"

	// GeneratorVersion is the xbridge generator version.
	GeneratorVersion = "0.1.0"
)

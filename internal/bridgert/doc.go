// Package bridgert models the runtime contract of a generated interface in
// Go: construction, accessors, mutation scopes, enum unions, raw values,
// optionals and resilient boxing.
//
// It executes against a bridge.Output, so only what survived generation is
// reachable. Initializer bodies are not available to the generator;
// initialization is modelled as memberwise assignment of stored properties.
//
// Values are not safe for concurrent use, matching the generated header.
package bridgert

// Package bridge runs one generation pass: a ModuleInterface in, a header
// model plus diagnostics out.
//
// The pass is synchronous and single-threaded. Declarations whose types have
// no target mapping are dropped with a diagnostic and the pass continues; an
// overload collision fails the pass.
package bridge

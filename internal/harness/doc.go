// Package harness runs conformance cases against the generator.
//
// A case is a YAML file naming a module interface (any format ifacefile
// reads), the generation options, and assertions about the outcome:
// which declarations are exported, which are dropped and why, what the
// header contains, and which generic instantiations are accepted. Runtime
// assertions drive the bridgert model of the generated types: raw-value
// lookup, enum case predicates, copy independence and default values. The
// emitted header can additionally be compared with a golden file.
//
//	name: travel-drops-closures
//	description: closure-typed declarations are reported, not emitted
//	interface: travel.cue
//	assertions:
//	  - type: dropped
//	    selector: Handler
//	    code: UnrepresentableType
//	  - type: instantiate
//	    function: maximum(_:_:)
//	    types: [Int]
//
// Each case runs its own generation pass; cases share no state.
package harness

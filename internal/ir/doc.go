// Package ir provides the module-interface data model consumed by the bridge
// generator.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the interface model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A ModuleInterface is produced once and read-only afterwards
//   - TypeRefs serialize as their source-language spelling ("Int?", "UnsafePointer<T>")
//   - All JSON tags use snake_case
//   - Declaration order is significant and preserved by every codec
package ir

// Package codegen is the backend-independent part of code generation.
//
// Lowering talks to a backend only through the interfaces declared in
// traits.go; Value, Type and Block are handles owned by the backend and valid
// while the backend context that produced them is alive. The helpers here
// (shift masking, type queries, lang-item calls) never look inside a handle.
package codegen

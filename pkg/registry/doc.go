// Package registry provides a generic, type-safe, name-keyed registry.
// Entries keep their registration order so that callers building
// pipelines from a registry see a deterministic sequence. The trigger
// catalog populates one at startup through explicit Register calls.
package registry

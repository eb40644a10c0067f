// Package wardly turns free-form natural-language requests into validated,
// structured calls against a fixed catalog of backend operations (tools), and
// drives multi-round conversations where an external model decides which
// tools to call.
//
// # Overview
//
// Two entry points share one catalog:
//
//   - Direct path: Extractor converts raw text into a complete, typed
//     parameter set for a target entity (or a precise "what's missing"
//     answer), resolving human-typed names to foreign-key identifiers along
//     the way. The resulting calls run through Registry.ExecuteBatch in
//     priority order and the outputs render via FormatReport.
//   - Conversational path: Orchestrator sends the pruned session history plus
//     the Registry's function schemas to a ModelClient, executes any
//     requested calls (concurrently within a round), feeds results back, and
//     repeats until the model stops asking or the round cap is hit.
//
// # Key concepts
//
//   - Single catalog: one set of FieldSpecs per tool drives the schema shown
//     to the model, the validation of its argument JSON, and the slot
//     extraction rules.
//   - Partial success: a batch collects every result; one failing call never
//     cancels its siblings.
//   - Typed failures: ClientError carries messages safe to show the model or
//     user; SystemError hides internals. Only a model-endpoint failure
//     escalates past the round.
//
// See ToolDescriptor, Extractor, Registry, and Orchestrator for the core
// types, and package hospital for the catalog this engine ships with.
package wardly

// Package claim defines the data model shared by the grounding engine:
// claims, evidence, verdicts, feedback, and raw findings.
//
// A claim is a unit of derived knowledge (a detected pattern, an
// architectural constraint, a memory, or a recorded decision) whose
// trustworthiness the engine tracks over time. Evidence is an ephemeral
// per-pass signal about a claim collected from one of ten independent
// sources; a verdict is the discrete outcome of scoring one pass.
//
// The package holds only types and pure helpers. Ownership rules:
//   - The confidence ledger owns per-claim Beta parameters.
//   - The causal graph references claims by ID and never owns them.
//   - Claims are created upstream and never deleted by the engine.
package claim

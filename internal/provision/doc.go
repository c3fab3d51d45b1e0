// Package provision executes the host setup plan: CUDA packages, the Python
// numerical stack, source builds, and OS upgrades. Every step goes through the
// command runner; the first failing step aborts the run.
//
// Ownership boundary:
// - provisioning plan model and validation
//
// - sequential step execution with abort-on-error semantics
package provision

// Package notebook configures and launches the Jupyter server inside a
// persistent session, then waits for it to come up and report its access
// token.
//
// Ownership boundary:
// - server configuration file generation
//
// - launch orchestration and readiness diagnostics
package notebook

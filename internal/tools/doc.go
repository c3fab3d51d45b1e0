// Package tools provides command execution helpers shared by the
// provisioning, session, and notebook modules.
//
// Ownership boundary:
// - command execution seam (local and SSH)
//
// - shell quoting primitives
package tools

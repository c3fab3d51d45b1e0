// Package session manages named persistent tmux sessions so the notebook
// server keeps running after gpuprepctl exits.
//
// Ownership boundary:
// - session lifecycle (acquire-or-recreate, kill, list)
//
// - pane output capture for diagnostics
package session

// Package daemon wires the notchd services together: configuration and
// shared-state hot reload, the surface manager, the transient overlay
// machine, and the D-Bus control, OSD and lock sources.
package daemon

// Package display owns the per-display overlay surfaces. The Manager
// reconciles the live surface set against the display topology and user
// preferences, applies lock-screen rendering, and routes pointer toggles,
// region gestures and tab swipes to the right surface.
//
// Every Manager method must run on the executor the Manager was built with.
// Inputs arriving on other goroutines go through Run, which hops them onto
// the executor.
package display

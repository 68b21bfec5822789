// Package dbus connects notchd to the D-Bus session and system buses.
//
// It exports the io.github.jmylchreest.Notchd control service used by the
// notch CLI, passively monitors org.freedesktop.Notifications traffic for
// OSD-style notifications (volume, brightness, ...) and turns them into peek
// requests, and watches logind and the screensaver for lock state changes.
package dbus

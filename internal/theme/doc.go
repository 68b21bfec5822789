// Package theme handles CSS theme loading and hot-reload for the wayland
// backend. It supports loading themes from ~/.config/notchd/themes/ and
// provides embedded themes for use when no custom theme is configured.
package theme

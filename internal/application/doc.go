// Package application provides dependency wiring for the CLI. It resolves the
// config file location, builds the configuration resolver and the logger, and
// constructs the tracking client and output renderers from the effective
// configuration so the main package stays focused on argument parsing.
package application

// Package cli provides the interactive CircleUp command-line client.
//
// It wires configuration, local storage, the API client and the feed state
// holders behind a small REPL. A background connectivity watcher switches the
// client between online and offline mode; the feed keeps working from the
// local cache while offline.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, runREPL and the command handlers for details.
package cli

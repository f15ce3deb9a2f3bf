// Package connectivity answers "can the API be reached right now?".
//
// PingChecker probes on every call; Watcher probes on an interval in the
// background and answers from the last result, logging each transition
// between online and offline.
package connectivity

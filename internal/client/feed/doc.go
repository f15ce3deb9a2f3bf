// Package feed holds the observable state behind the feed and favorites
// screens and turns user actions into service calls.
//
// Every operation is safe for concurrent use. State is handed out as a copy,
// either on demand through State or pushed to Subscribe channels after each
// change.
package feed

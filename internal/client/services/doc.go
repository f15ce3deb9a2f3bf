// Package services contains the application services of the CircleUp client.
//
// PostService is the sync coordinator: it decides per call whether to read
// the remote feed or the local cache, writes successful remote reads back to
// the cache, and keeps the cached favorite flag in line with the favorites
// set. FavoritesService, AuthService and ProfileService cover the remaining
// screens.
package services

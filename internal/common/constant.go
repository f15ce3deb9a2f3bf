package common

import "time"

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// FullFetchPage tags cached rows that came from an unpaginated fetch.
const FullFetchPage = 0

// DefaultCacheRetention is how long a cached post stays fresh before it is
// eligible for purge.
const DefaultCacheRetention = 24 * time.Hour

// Package redis connects to an optional Redis server used for cross-process
// preference cache invalidation.
package redis

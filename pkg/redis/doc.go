// Package redis connects to the Redis instance backing the shared lockout
// store for multi-process deployments. Configuration comes from REDIS_*
// environment variables.
package redis

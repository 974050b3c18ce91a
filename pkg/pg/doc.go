// Package pg bootstraps the PostgreSQL layer backing the MFA stores: a
// pgx/v5 connection pool opened with retry and exponential backoff, goose
// migrations applied from an embedded filesystem, and a health check closure
// for readiness probes. Configuration comes from PG_* environment variables.
package pg

package http

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// The composition root hands the raw pool to App.Health for readiness
// checks, so the pool must keep satisfying the HealthChecker contract.
var _ HealthChecker = (*pgxpool.Pool)(nil)

package config

import "errors"

var (
	// ErrInvalidTimeout is returned when the fetch timeout is not greater than 0
	ErrInvalidTimeout = errors.New("fetch.timeout must be greater than 0")
	// ErrInvalidConcurrency is returned when batch concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("fetch.concurrency must be greater than 0")
	// ErrInvalidChallengeRatio is returned when the challenge transport ratio is outside [0,1]
	ErrInvalidChallengeRatio = errors.New("fetch.challenge_ratio must be between 0 and 1")
	// ErrInvalidRetryAttempts is returned when retry attempts is not greater than 0
	ErrInvalidRetryAttempts = errors.New("retry.max_attempts must be greater than 0")
	// ErrEmptyDatabasePath is returned when history is enabled without a database path
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty when history is enabled")
)

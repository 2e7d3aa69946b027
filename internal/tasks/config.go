package tasks

import "time"

// Config sizes the worker pool and the queue maintenance loops. Zero
// values are replaced with the defaults from withDefaults.
type Config struct {
	Workers      int           // concurrent workers draining the queue
	MaxRetries   int           // attempts before a task is marked failed
	RetryDelay   time.Duration // backoff between attempts
	TaskTimeout  time.Duration // per-task execution deadline
	ReleaseAfter time.Duration // when a stuck claimed task is requeued

	CleanupInterval   time.Duration // completed-task sweep cadence
	RetentionDuration time.Duration // how long finished tasks are kept
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Minute
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 5 * time.Minute
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = 15 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = 24 * time.Hour
	}
	return c
}

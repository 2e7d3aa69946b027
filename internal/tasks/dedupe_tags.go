package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// TagDeduper repairs duplicate tags in the registry.
type TagDeduper interface {
	DeduplicateAll() (int, error)
}

// DedupeTagsTask merges every group of tags sharing a canonical name.
type DedupeTagsTask struct{}

// Config returns the queue configuration for dedupe tasks.
func (t DedupeTagsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "dedupe_tags",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DedupeTagsProcessor creates a processor function for DedupeTagsTask.
func DedupeTagsProcessor(deduper TagDeduper) backlite.QueueProcessor[DedupeTagsTask] {
	return func(ctx context.Context, task DedupeTagsTask) error {
		if deduper == nil {
			return fmt.Errorf("tag deduper not configured")
		}

		merged, err := deduper.DeduplicateAll()
		if err != nil {
			return fmt.Errorf("dedupe tags: %w", err)
		}

		if merged > 0 {
			log.Printf("[TASK] Merged %d duplicate tag groups", merged)
		}
		return nil
	}
}

// NewDedupeTagsQueue creates a backlite queue for tag dedupe tasks.
func NewDedupeTagsQueue(deduper TagDeduper) backlite.Queue {
	return backlite.NewQueue(DedupeTagsProcessor(deduper))
}

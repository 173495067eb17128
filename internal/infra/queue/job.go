// Package queue доставляет задачи тегирования от API до воркера tagger.
package queue

import (
	"time"

	"github.com/google/uuid"

	"estate-discovery/internal/domain"
)

// prepareJob проставляет идентификатор и время постановки, если их нет.
func prepareJob(job domain.TagJob) domain.TagJob {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	if job.Cause == "" {
		job.Cause = domain.TagCauseAdmin
	}
	return job
}

// Package pipeline holds the per-subject units of work of the batch tools and the pool that
// runs them. A failure inside one subject is logged and never reaches another subject.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SubjectFunc processes one subject. It reports failures through the log only.
type SubjectFunc func(ctx context.Context, subject string)

// Run calls fn once per subject on at most workers goroutines and waits for all of them.
// Cancelling ctx stops new subjects from starting; Run then returns ctx.Err().
func Run(ctx context.Context, subjects []string, workers int, fn SubjectFunc) error {
	if workers < 1 {
		workers = 1
	}

	log.Infof("Starting %d workers for %d subjects", workers, len(subjects))

	var g errgroup.Group
	g.SetLimit(workers)

	for _, subject := range subjects {
		if ctx.Err() != nil {
			break
		}

		subject := subject
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("subject", subject).Errorf("Subject aborted: %v\n%s", r, debug.Stack())
				}
			}()

			if ctx.Err() != nil {
				return nil
			}

			fn(ctx, subject)
			return nil
		})
	}

	g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	return nil
}

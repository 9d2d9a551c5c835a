// Package bulk pre-validates multi-row operations so they apply
// all-or-nothing: authorization is decided for the whole batch before any
// row is mutated.
package bulk

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shiftdesk/shiftdesk/internal/authz"
)

var rejections = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "bulk_rejections_total",
	Help: "Number of rejected bulk operations.",
}, []string{"reason"})

// ErrEmptyBatch rejects a batch without target ids.
var ErrEmptyBatch = errors.New("bulk operation requires at least one id")

// NotFoundError rejects a batch where fewer rows were found than ids were
// requested. Duplicated ids in the request trip the same check; they are
// never deduplicated implicitly.
type NotFoundError struct {
	Requested int
	Fetched   int
}

func (e *NotFoundError) Error() string {
	return "some ids not found or inaccessible"
}

// Unwrap makes the rejection read as a NotFound in the error taxonomy.
func (e *NotFoundError) Unwrap() error {
	return authz.ErrNotFound
}

// UnauthorizedError rejects a batch where some rows failed the per-row
// mutation guard. Only the count is reported, never the ids, so scope
// boundaries do not leak.
type UnauthorizedError struct {
	Count int
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%d unauthorized rows in batch", e.Count)
}

func (e *UnauthorizedError) Unwrap() error {
	return authz.ErrForbidden
}

// CompletedError rejects a completion batch containing rows already in
// the terminal completed state.
type CompletedError struct {
	Count int
}

func (e *CompletedError) Error() string {
	return fmt.Sprintf("%d already completed rows in batch", e.Count)
}

// Target is one fetched row of the batch.
type Target struct {
	ID   string
	Meta authz.RowMeta
	// Completed marks rows already in a terminal completed state.
	Completed bool
}

// Options tune the validation.
type Options struct {
	// RejectCompleted additionally rejects rows already completed. Used by
	// "complete" semantics, where re-completing is a business-state error
	// even though authorization would pass.
	RejectCompleted bool
}

// Validate decides accept or reject for the whole batch. fetched must be
// the rows found for requestedIDs; absent and duplicate ids surface as a
// count mismatch, rows the caller may not touch as a rejection count.
//
// Checks run in order: emptiness, fetch count, per-row authorization,
// business state. On nil return the caller may apply the batch mutation as
// one logical unit.
func Validate(p authz.Principal, requestedIDs []string, fetched []Target, opts Options) error {
	if len(requestedIDs) == 0 {
		rejections.WithLabelValues("empty").Inc()
		return ErrEmptyBatch
	}

	if len(fetched) != len(requestedIDs) {
		rejections.WithLabelValues("not_found").Inc()
		return &NotFoundError{Requested: len(requestedIDs), Fetched: len(fetched)}
	}

	unauthorized := 0
	for _, row := range fetched {
		if !authz.CanMutate(p, row.Meta) {
			unauthorized++
		}
	}

	if unauthorized > 0 {
		rejections.WithLabelValues("unauthorized").Inc()
		return &UnauthorizedError{Count: unauthorized}
	}

	if opts.RejectCompleted {
		completed := 0
		for _, row := range fetched {
			if row.Completed {
				completed++
			}
		}

		if completed > 0 {
			rejections.WithLabelValues("already_completed").Inc()
			return &CompletedError{Count: completed}
		}
	}

	return nil
}

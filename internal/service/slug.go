package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iliyamo/job-board/internal/repository"
	"github.com/iliyamo/job-board/internal/utils"
)

const (
	slugAttempts  = 20
	slugSuffixLen = 4
	jobSlugMaxLen = 50
)

// insertWithSlug picks a free slug for base and runs insert with it.  A
// taken candidate gets "-xxxx" appended; a unique key violation on key
// during insert (a concurrent writer won the slug) also retries.
func insertWithSlug(ctx context.Context, base, fallback, key string,
	exists func(context.Context, string) (bool, error),
	insert func(ctx context.Context, slug string) error) error {

	if base == "" {
		base = fallback
	}
	candidate := base
	for attempt := 0; attempt < slugAttempts; attempt++ {
		if attempt > 0 {
			suffix, err := utils.RandomSuffix(slugSuffixLen)
			if err != nil {
				return errors.Wrap(err, "slug suffix")
			}
			candidate = base + "-" + suffix
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return errors.Wrap(err, "check slug")
		}
		if taken {
			continue
		}

		err = insert(ctx, candidate)
		if repository.IsDuplicateKey(err, key) {
			continue
		}
		return err
	}
	return conflict("could not allocate a unique slug")
}

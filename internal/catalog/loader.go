package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"coursepocket/internal/domain"
)

// Loader assembles the course catalog from both public feeds. Every Load
// re-fetches and reassigns all ids; there is no cache between calls.
type Loader struct {
	Users    Provider
	Products Provider

	log *logrus.Logger
}

func NewLoader(feedAPI FeedAPI, log *logrus.Logger) *Loader {
	return &Loader{
		Users:    UserProvider{API: feedAPI},
		Products: ProductProvider{API: feedAPI},
		log:      log,
	}
}

// Load fetches both feeds concurrently and joins them, user-derived courses
// before product-derived ones, each keeping its upstream order. If either
// feed fails the whole load fails; no partial catalog is produced.
func (l *Loader) Load(ctx context.Context) ([]domain.Course, error) {
	var fromUsers, fromProducts []domain.Course

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if fromUsers, err = l.Users.Courses(ctx); err != nil {
			return fmt.Errorf("%s: %w", l.Users.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if fromProducts, err = l.Products.Courses(ctx); err != nil {
			return fmt.Errorf("%s: %w", l.Products.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.Infof("catalog loaded: %d instructor courses, %d product courses", len(fromUsers), len(fromProducts))
	return append(fromUsers, fromProducts...), nil
}

// Filter returns the courses matching query on title or description,
// case-insensitively. Pure and computed on demand; never persisted.
func Filter(courses []domain.Course, query string) []domain.Course {
	if strings.TrimSpace(query) == "" {
		return courses
	}

	out := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if c.MatchesQuery(query) {
			out = append(out, c)
		}
	}
	return out
}

package catalog

import (
	"context"
	"fmt"
	"math/rand"

	"coursepocket/internal/api"
	"coursepocket/internal/domain"
)

// FeedAPI is the slice of the upstream client the providers need.
type FeedAPI interface {
	FetchRandomUsers(ctx context.Context) ([]api.FeedUser, error)
	FetchRandomProducts(ctx context.Context) ([]api.FeedProduct, error)
}

// Provider turns one upstream feed into catalog courses.
type Provider interface {
	Name() string
	Courses(ctx context.Context) ([]domain.Course, error)
}

// UserProvider derives a course from each profile in the random-users feed.
// Ids are positional within the batch and prices are synthesized per load,
// so neither is stable across reloads.
type UserProvider struct {
	API FeedAPI
}

func (p UserProvider) Name() string { return "randomusers" }

func (p UserProvider) Courses(ctx context.Context) ([]domain.Course, error) {
	users, err := p.API.FetchRandomUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(users))
	for i, u := range users {
		name := string(u.Name)
		out = append(out, domain.Course{
			ID:          fmt.Sprintf("user-%d", i),
			Title:       fmt.Sprintf("Course by %s", name),
			Description: fmt.Sprintf("Learn from %s, a professional instructor.", name),
			Instructor:  name,
			Price:       float64(rand.Intn(100) + 10),
		})
	}
	return out, nil
}

// ProductProvider derives a course from each entry in the random-products
// feed, keeping the upstream title, description and price.
type ProductProvider struct {
	API FeedAPI
}

func (p ProductProvider) Name() string { return "randomproducts" }

func (p ProductProvider) Courses(ctx context.Context) ([]domain.Course, error) {
	products, err := p.API.FetchRandomProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Course, 0, len(products))
	for i, prod := range products {
		out = append(out, domain.Course{
			ID:          fmt.Sprintf("product-%d", i),
			Title:       prod.Title,
			Description: prod.Description,
			Instructor:  "Expert Instructor",
			Price:       prod.Price,
		})
	}
	return out, nil
}

// Package stats computes the aggregate counters shown above each list. They
// always describe the whole collection, never the page on screen.
package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// Refresher loads statistics from the backend, tallying the full listing
// when the backend has no statistics endpoint for a collection.
type Refresher struct {
	client *backend.Client
	logger *zap.Logger
}

// NewRefresher creates a Refresher
func NewRefresher(client *backend.Client, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{client: client, logger: logger}
}

// Refresh returns the counters of one collection
func (r *Refresher) Refresh(ctx context.Context, token string, resource model.Resource) (model.Statistics, error) {
	counters, err := r.client.Statistics(ctx, token, resource)
	if err == nil {
		return model.Statistics{Resource: resource, Counters: counters}, nil
	}
	if !unsupported(err) {
		return model.Statistics{}, err
	}

	r.logger.Debug("statistics endpoint unavailable, tallying full listing",
		zap.String("resource", resource.String()))

	counters, err = r.tally(ctx, token, resource)
	if err != nil {
		return model.Statistics{}, err
	}
	return model.Statistics{Resource: resource, Counters: counters}, nil
}

func (r *Refresher) tally(ctx context.Context, token string, resource model.Resource) (model.Counters, error) {
	switch resource {
	case model.ResourceBoats:
		return tallyAll[model.Boat](ctx, r.client, token, resource)
	case model.ResourceOwners:
		return tallyAll[model.Owner](ctx, r.client, token, resource)
	case model.ResourceMaintenances:
		return tallyAll[model.Maintenance](ctx, r.client, token, resource)
	case model.ResourcePayments:
		return tallyAll[model.Payment](ctx, r.client, token, resource)
	}
	return nil, fmt.Errorf("no statistics for resource %q", resource)
}

func tallyAll[T model.Tallier](ctx context.Context, c *backend.Client, token string, resource model.Resource) (model.Counters, error) {
	items, err := backend.ListAll[T](ctx, c, token, resource)
	if err != nil {
		return nil, err
	}
	return Tally(items), nil
}

// Tally folds records into counters. An empty dataset still reports total 0.
func Tally[T model.Tallier](items []T) model.Counters {
	counters := model.Counters{"total": 0}
	for _, item := range items {
		item.Tally(counters)
	}
	return counters
}

// unsupported reports whether the backend lacks a statistics endpoint
func unsupported(err error) bool {
	var be *backend.Error
	if !errors.As(err, &be) {
		return false
	}
	switch be.Status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// Dashboard refreshes every collection concurrently. An expired session
// aborts the whole dashboard; any other failure is reported on the
// affected collection only.
func (r *Refresher) Dashboard(ctx context.Context, token string) ([]model.Statistics, error) {
	results := make([]model.Statistics, len(model.Resources))

	g, ctx := errgroup.WithContext(ctx)
	for i, resource := range model.Resources {
		i, resource := i, resource
		g.Go(func() error {
			s, err := r.Refresh(ctx, token, resource)
			if err != nil {
				if errors.Is(err, backend.ErrAuthExpired) {
					return err
				}
				r.logger.Warn("dashboard statistics failed",
					zap.String("resource", resource.String()), zap.Error(err))
				s = model.Statistics{
					Resource: resource,
					Counters: model.Counters{},
					Notice:   backend.AsError(err).UserMessage(),
				}
			}
			results[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

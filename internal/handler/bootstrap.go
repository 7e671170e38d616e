package handler

import (
	"context"

	"github.com/helicode/ambassador-console-go/internal/store"

	"golang.org/x/sync/errgroup"
)

// Dashboard bootstrap fetches. The slices are independent, so they load
// in parallel; fetch failures are absorbed into each store's error slot
// and rendered in the view rather than failing the request.

func bootstrapAdmin(ctx context.Context, admin *store.AmbassadorStore) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		admin.FetchAmbassadors(ctx)
		return nil
	})
	g.Go(func() error {
		admin.FetchBanks(ctx)
		return nil
	})
	_ = g.Wait()
}

func bootstrapAmbassador(ctx context.Context, referrals *store.ReferralStore) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		referrals.FetchMetrics(ctx)
		return nil
	})
	g.Go(func() error {
		referrals.FetchReferrals(ctx)
		return nil
	})
	_ = g.Wait()
}

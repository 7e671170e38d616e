package store

import (
	"context"
	"strings"
	"sync"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var referralTracer = otel.Tracer("store/referrals")

// ReferralStore owns the ambassador's own dashboard state: the referral
// metrics summary and the personal referral history. Nothing here is
// persisted; the dashboard refetches on every visit.
type ReferralStore struct {
	mu      sync.RWMutex
	api     port.ReferralAPI
	metrics *observability.Metrics
	logger  *zap.Logger

	summary   *domain.ReferralMetrics
	referrals []domain.Referral

	searchTerm string
	pager      Paginator

	loading bool
	errMsg  string

	metricsSeq  uint64
	referralSeq uint64
}

// NewReferralStore builds the self-service referral store.
func NewReferralStore(api port.ReferralAPI, metrics *observability.Metrics, logger *zap.Logger) *ReferralStore {
	return &ReferralStore{
		api:     api,
		metrics: metrics,
		logger:  logger,
		pager:   NewPaginator(),
	}
}

// FetchMetrics replaces the metrics summary wholesale. Failures are
// absorbed into the error slot.
func (s *ReferralStore) FetchMetrics(ctx context.Context) {
	ctx, span := referralTracer.Start(ctx, "ReferralStore.FetchMetrics")
	defer span.End()

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.metricsSeq++
	seq := s.metricsSeq
	s.mu.Unlock()

	summary, err := s.api.Metrics(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.metricsSeq {
		return
	}
	s.loading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("referrals", "fetch_metrics", "error")
		s.logger.Warn("referrals: metrics fetch failed", zap.Error(err))
		return
	}

	s.summary = summary
	s.metrics.IncrStoreOp("referrals", "fetch_metrics", "success")
}

// FetchReferrals replaces the personal referral history wholesale,
// preserving the server's order.
func (s *ReferralStore) FetchReferrals(ctx context.Context) {
	ctx, span := referralTracer.Start(ctx, "ReferralStore.FetchReferrals")
	defer span.End()

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.referralSeq++
	seq := s.referralSeq
	s.mu.Unlock()

	referrals, err := s.api.Referrals(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.referralSeq {
		return
	}
	s.loading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("referrals", "fetch_list", "error")
		s.logger.Warn("referrals: list fetch failed", zap.Error(err))
		return
	}

	s.referrals = referrals
	s.metrics.IncrStoreOp("referrals", "fetch_list", "success")
}

// Metrics returns the last fetched summary, nil before the first
// successful fetch.
func (s *ReferralStore) Metrics() *domain.ReferralMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	m := *s.summary
	return &m
}

// Referrals returns a copy of the full history, in the order received.
func (s *ReferralStore) Referrals() []domain.Referral {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Referral, len(s.referrals))
	copy(out, s.referrals)
	return out
}

// SetSearch updates the active filter; a changed term resets the page
// cursor to 1.
func (s *ReferralStore) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if term == s.searchTerm {
		return
	}
	s.searchTerm = term
	s.pager.Reset()
}

// SetPage moves the page cursor, clamped to the filtered page count.
func (s *ReferralStore) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pager.SetPage(page, len(s.filteredLocked()))
}

// Page returns the current 1-indexed page.
func (s *ReferralStore) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.Page()
}

// TotalPages returns the page count for the filtered set, floor 1.
func (s *ReferralStore) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.TotalPages(len(s.filteredLocked()))
}

// VisibleReferrals returns the current page of the filtered history.
func (s *ReferralStore) VisibleReferrals() []domain.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.filteredLocked()
	start, end := s.pager.Bounds(len(filtered))
	out := make([]domain.Referral, end-start)
	copy(out, filtered[start:end])
	return out
}

// filteredLocked matches the search term against status, recipient and
// date, case-insensitive.
func (s *ReferralStore) filteredLocked() []domain.Referral {
	if s.searchTerm == "" {
		return s.referrals
	}
	term := strings.ToLower(s.searchTerm)
	out := make([]domain.Referral, 0, len(s.referrals))
	for _, r := range s.referrals {
		if strings.Contains(strings.ToLower(r.Status), term) ||
			strings.Contains(strings.ToLower(r.Recipient), term) ||
			strings.Contains(strings.ToLower(r.Date), term) {
			out = append(out, r)
		}
	}
	return out
}

// Loading reports an in-flight fetch.
func (s *ReferralStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last fetch error message, empty when none.
func (s *ReferralStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

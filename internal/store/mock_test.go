package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/helicode/ambassador-console-go/internal/domain"
)

// Test doubles shared by the store tests.

type mockAuthAPI struct {
	loginFn func(ctx context.Context, email, password string) (*domain.LoginData, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, email, password string) (*domain.LoginData, error) {
	return m.loginFn(ctx, email, password)
}

type mockAmbassadorAPI struct {
	ambassadorsFn func(ctx context.Context) ([]domain.Ambassador, error)
	referralsFn   func(ctx context.Context, id string) ([]domain.Referral, error)
	banksFn       func(ctx context.Context) ([]domain.Bank, error)
	verifyFn      func(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error)
	updateFn      func(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error)
	inviteFn      func(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error)
}

func (m *mockAmbassadorAPI) Ambassadors(ctx context.Context) ([]domain.Ambassador, error) {
	return m.ambassadorsFn(ctx)
}

func (m *mockAmbassadorAPI) AmbassadorReferrals(ctx context.Context, id string) ([]domain.Referral, error) {
	return m.referralsFn(ctx, id)
}

func (m *mockAmbassadorAPI) Banks(ctx context.Context) ([]domain.Bank, error) {
	return m.banksFn(ctx)
}

func (m *mockAmbassadorAPI) VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error) {
	return m.verifyFn(ctx, bankCode, accountNumber)
}

func (m *mockAmbassadorAPI) UpdateAmbassador(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error) {
	return m.updateFn(ctx, id, patch)
}

func (m *mockAmbassadorAPI) InviteUser(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
	return m.inviteFn(ctx, req)
}

type mockReferralAPI struct {
	metricsFn   func(ctx context.Context) (*domain.ReferralMetrics, error)
	referralsFn func(ctx context.Context) ([]domain.Referral, error)
}

func (m *mockReferralAPI) Metrics(ctx context.Context) (*domain.ReferralMetrics, error) {
	return m.metricsFn(ctx)
}

func (m *mockReferralAPI) Referrals(ctx context.Context) ([]domain.Referral, error) {
	return m.referralsFn(ctx)
}

// memSnapshot keeps snapshots as marshaled JSON in memory, mirroring
// the on-disk Snapshotter closely enough to catch serialization bugs.
type memSnapshot struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemSnapshot() *memSnapshot {
	return &memSnapshot{files: make(map[string][]byte)}
}

func (m *memSnapshot) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func (m *memSnapshot) Load(name string, out any) bool {
	m.mu.Lock()
	data, ok := m.files[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func strPtr(s string) *string { return &s }

// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the stores from
// the concrete HTTP gateway and from host facilities like navigation,
// notifications and snapshot persistence.
package port

import (
	"context"

	"github.com/helicode/ambassador-console-go/internal/domain"
)

// AuthAPI is the authentication surface of the remote API.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.LoginData, error)
}

// AmbassadorAPI is the admin surface of the remote API.
type AmbassadorAPI interface {
	Ambassadors(ctx context.Context) ([]domain.Ambassador, error)
	AmbassadorReferrals(ctx context.Context, id string) ([]domain.Referral, error)
	Banks(ctx context.Context) ([]domain.Bank, error)
	VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error)
	UpdateAmbassador(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error)
	InviteUser(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error)
}

// ReferralAPI is the ambassador self-service surface of the remote API.
type ReferralAPI interface {
	Metrics(ctx context.Context) (*domain.ReferralMetrics, error)
	Referrals(ctx context.Context) ([]domain.Referral, error)
}

// Navigator performs client-side route changes ("navigate to route X").
// The host shell decides what navigation actually means.
type Navigator interface {
	NavigateTo(route string)
}

// Notifier surfaces transient user-visible notifications (the toast
// analog). Mutation failures and successes go through here.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Snapshotter is the serialization boundary for persisted client state.
// Load reports ok=false for missing or corrupt snapshots so callers
// fall back to defaults instead of crashing.
type Snapshotter interface {
	Save(name string, v any) error
	Load(name string, out any) (ok bool)
}

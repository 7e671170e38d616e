package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helicode/ambassador-console-go/internal/domain"
)

// Typed endpoint methods. Together these implement port.AuthAPI,
// port.AmbassadorAPI and port.ReferralAPI.

// Login authenticates staff credentials. The request goes out without a
// bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginData, error) {
	body := map[string]string{"email": email, "password": password}
	var data domain.LoginData
	if _, err := c.do(ctx, http.MethodPost, "/admin/login", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ambassadors fetches the full ambassador list.
func (c *Client) Ambassadors(ctx context.Context) ([]domain.Ambassador, error) {
	var data struct {
		UserData []domain.Ambassador `json:"userData"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/admin/ambassadors", nil, &data); err != nil {
		return nil, err
	}
	return data.UserData, nil
}

// AmbassadorReferrals fetches one ambassador's referral history.
func (c *Client) AmbassadorReferrals(ctx context.Context, id string) ([]domain.Referral, error) {
	var data []domain.Referral
	path := fmt.Sprintf("/admin/ambassador/%s/referrals", id)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Banks fetches the bank reference list. Duplicate codes are returned
// as-is; the store collapses them.
func (c *Client) Banks(ctx context.Context) ([]domain.Bank, error) {
	var data struct {
		List []domain.Bank `json:"list"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/admin/list-banks", nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// VerifyAccount resolves a bank account to its registered holder name.
func (c *Client) VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error) {
	body := map[string]string{
		"bank_code":      bankCode,
		"account_number": accountNumber,
	}
	var data domain.AccountVerification
	if _, err := c.do(ctx, http.MethodPost, "/admin/verify-account", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdateAmbassador patches an ambassador and returns the fields the
// server echoed back, for merging into local state.
func (c *Client) UpdateAmbassador(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error) {
	var data domain.AmbassadorPatch
	path := fmt.Sprintf("/admin/ambassador/%s", id)
	if _, err := c.do(ctx, http.MethodPatch, path, patch, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// InviteUser invites a new ambassador. The envelope metadata is handed
// back raw so the caller can surface the server's own message.
func (c *Client) InviteUser(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/admin/invite-user", req, nil)
	if err != nil {
		return nil, err
	}
	return &domain.APIResult{
		Status:     env.Status,
		StatusCode: env.StatusCode,
		Message:    env.Message,
	}, nil
}

// Metrics fetches the authenticated ambassador's own referral summary.
func (c *Client) Metrics(ctx context.Context) (*domain.ReferralMetrics, error) {
	var data domain.ReferralMetrics
	if _, err := c.do(ctx, http.MethodGet, "/user/metrics", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Referrals fetches the authenticated ambassador's own referral history.
func (c *Client) Referrals(ctx context.Context) ([]domain.Referral, error) {
	var data []domain.Referral
	if _, err := c.do(ctx, http.MethodGet, "/user/referrals", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

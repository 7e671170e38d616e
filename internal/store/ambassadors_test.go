package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/infra/notify"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"

	"go.uber.org/zap"
)

func newAmbassadorStore(t *testing.T, api *mockAmbassadorAPI) (*AmbassadorStore, *notify.Memory) {
	t.Helper()
	notifier := &notify.Memory{}
	s := NewAmbassadorStore(api, newMemSnapshot(), notifier, observability.NewMetrics(), zap.NewNop())
	return s, notifier
}

func seedAmbassadors(n int) []domain.Ambassador {
	out := make([]domain.Ambassador, n)
	for i := range out {
		out[i] = domain.Ambassador{
			ID:           fmt.Sprintf("amb-%03d", i),
			FirstName:    fmt.Sprintf("First%d", i),
			LastName:     fmt.Sprintf("Last%d", i),
			Email:        fmt.Sprintf("amb%d@helicode.io", i),
			ReferralCode: fmt.Sprintf("REF%03d", i),
		}
	}
	return out
}

func TestFetchAmbassadorsReplacesListInOrder(t *testing.T) {
	want := seedAmbassadors(3)
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return want, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)

	s.FetchAmbassadors(context.Background())

	got := s.Ambassadors()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("order broken at %d: got %s, want %s", i, got[i].ID, want[i].ID)
		}
	}
	if s.ListLoading() {
		t.Error("listLoading still set")
	}
	if s.Err() != "" {
		t.Errorf("Err() = %q", s.Err())
	}
}

func TestFetchAmbassadorsFailureKeepsExistingList(t *testing.T) {
	calls := 0
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			calls++
			if calls == 1 {
				return seedAmbassadors(2), nil
			}
			return nil, &domain.ErrAPI{StatusCode: 500, Message: "boom"}
		},
	}
	s, _ := newAmbassadorStore(t, api)

	s.FetchAmbassadors(context.Background())
	s.FetchAmbassadors(context.Background())

	if len(s.Ambassadors()) != 2 {
		t.Errorf("failed fetch clobbered the list: len = %d", len(s.Ambassadors()))
	}
	if s.Err() == "" {
		t.Error("error not surfaced")
	}
}

func TestBanksDedupedByCodeFirstOccurrence(t *testing.T) {
	api := &mockAmbassadorAPI{
		banksFn: func(ctx context.Context) ([]domain.Bank, error) {
			return []domain.Bank{
				{Code: "058", Name: "GTBank"},
				{Code: "044", Name: "Access"},
				{Code: "058", Name: "GTBank duplicate"},
				{Code: "011", Name: "First Bank"},
			}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)

	s.FetchBanks(context.Background())

	banks := s.Banks()
	if len(banks) != 3 {
		t.Fatalf("len = %d, want 3", len(banks))
	}
	if banks[0].Name != "GTBank" {
		t.Errorf("first occurrence lost: %q", banks[0].Name)
	}
	if banks[0].Code != "058" || banks[1].Code != "044" || banks[2].Code != "011" {
		t.Errorf("order not preserved: %+v", banks)
	}
	if s.BankLoading() {
		t.Error("bankLoading still set")
	}
}

func TestVerifyAccountSuccessStoresName(t *testing.T) {
	api := &mockAmbassadorAPI{
		verifyFn: func(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error) {
			if bankCode != "058" || accountNumber != "0123456789" {
				t.Fatalf("unexpected args: %s %s", bankCode, accountNumber)
			}
			return &domain.AccountVerification{AccountNumber: accountNumber, AccountName: "JOHN DOE", BankID: 9}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)

	if err := s.VerifyAccount(context.Background(), "058", "0123456789"); err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}
	if s.AccountName() != "JOHN DOE" {
		t.Errorf("AccountName() = %q", s.AccountName())
	}
	if s.VerifyLoading() {
		t.Error("verifyLoading still set")
	}
}

func TestVerifyAccountFailureLeavesStateUntouched(t *testing.T) {
	fail := false
	api := &mockAmbassadorAPI{
		verifyFn: func(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error) {
			if fail {
				return nil, &domain.ErrAPI{StatusCode: 422, Message: "Could not resolve account"}
			}
			return &domain.AccountVerification{AccountName: "JOHN DOE"}, nil
		},
		banksFn: func(ctx context.Context) ([]domain.Bank, error) {
			return []domain.Bank{{Code: "058", Name: "GTBank"}}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchBanks(context.Background())
	s.SelectBank(&domain.Bank{Code: "058", Name: "GTBank"})
	if err := s.VerifyAccount(context.Background(), "058", "0123456789"); err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}

	fail = true
	err := s.VerifyAccount(context.Background(), "058", "0000000000")
	if err == nil {
		t.Fatal("expected error")
	}

	if s.AccountName() != "JOHN DOE" {
		t.Errorf("failure clobbered accountName: %q", s.AccountName())
	}
	if len(s.Banks()) != 1 {
		t.Error("failure touched bank list")
	}
	if b := s.SelectedBank(); b == nil || b.Code != "058" {
		t.Errorf("failure touched selected bank: %+v", b)
	}
	if s.Err() != "Could not resolve account" {
		t.Errorf("Err() = %q", s.Err())
	}
}

func TestUpdateAmbassadorMergesOnlyReturnedFields(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return []domain.Ambassador{
				{ID: "amb-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@helicode.io", PhoneNumber: "08011111111"},
				{ID: "amb-2", FirstName: "Grace", LastName: "Hopper", Email: "grace@helicode.io"},
			}, nil
		},
		updateFn: func(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error) {
			// Server echoes back a subset of what was sent.
			return &domain.AmbassadorPatch{FirstName: strPtr("Adeline")}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	patch := &domain.AmbassadorPatch{FirstName: strPtr("Adeline"), PhoneNumber: strPtr("08099999999")}
	if err := s.UpdateAmbassador(context.Background(), "amb-1", patch); err != nil {
		t.Fatalf("UpdateAmbassador: %v", err)
	}

	list := s.Ambassadors()
	if list[0].FirstName != "Adeline" {
		t.Errorf("returned field not applied: %q", list[0].FirstName)
	}
	if list[0].LastName != "Lovelace" || list[0].Email != "ada@helicode.io" {
		t.Errorf("absent fields clobbered: %+v", list[0])
	}
	if list[0].PhoneNumber != "08011111111" {
		t.Errorf("field the server did not return was applied locally: %q", list[0].PhoneNumber)
	}
	if list[1].FirstName != "Grace" {
		t.Errorf("unrelated entry touched: %+v", list[1])
	}
}

func TestUpdateAmbassadorFailureMutatesNothing(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return seedAmbassadors(1), nil
		},
		updateFn: func(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error) {
			return nil, &domain.ErrAPI{StatusCode: 400, Message: "bad request"}
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	err := s.UpdateAmbassador(context.Background(), "amb-000", &domain.AmbassadorPatch{FirstName: strPtr("X")})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := s.Ambassadors()[0].FirstName; got != "First0" {
		t.Errorf("failed update mutated list: %q", got)
	}
	if s.MutationLoading() {
		t.Error("mutationLoading still set")
	}
}

func TestSelectedResolvesAgainstListAfterUpdate(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return seedAmbassadors(2), nil
		},
		updateFn: func(ctx context.Context, id string, patch *domain.AmbassadorPatch) (*domain.AmbassadorPatch, error) {
			return patch, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	list := s.Ambassadors()
	s.SelectAmbassador(&list[1])

	if err := s.UpdateAmbassador(context.Background(), "amb-001", &domain.AmbassadorPatch{FirstName: strPtr("Renamed")}); err != nil {
		t.Fatalf("UpdateAmbassador: %v", err)
	}

	sel := s.Selected()
	if sel == nil {
		t.Fatal("selection lost")
	}
	if sel.FirstName != "Renamed" {
		t.Errorf("selection shows stale data: %q", sel.FirstName)
	}

	s.SelectAmbassador(nil)
	if s.Selected() != nil {
		t.Error("selection not cleared")
	}
}

func TestInviteUserValidatesBeforeNetwork(t *testing.T) {
	called := false
	api := &mockAmbassadorAPI{
		inviteFn: func(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
			called = true
			return &domain.APIResult{Status: true}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)

	cases := []struct {
		name string
		req  domain.InviteRequest
	}{
		{"short first name", domain.InviteRequest{FirstName: "A", LastName: "Bello", PhoneNumber: "0801234567", Email: "a@b.c", AccountNumber: "0123456789", BankCode: "058"}},
		{"short last name", domain.InviteRequest{FirstName: "Ada", LastName: "B", PhoneNumber: "0801234567", Email: "a@b.c", AccountNumber: "0123456789", BankCode: "058"}},
		{"short phone", domain.InviteRequest{FirstName: "Ada", LastName: "Bello", PhoneNumber: "12345", Email: "a@b.c", AccountNumber: "0123456789", BankCode: "058"}},
		{"bad email", domain.InviteRequest{FirstName: "Ada", LastName: "Bello", PhoneNumber: "0801234567", Email: "not-an-email", AccountNumber: "0123456789", BankCode: "058"}},
		{"short account number", domain.InviteRequest{FirstName: "Ada", LastName: "Bello", PhoneNumber: "0801234567", Email: "a@b.c", AccountNumber: "012345", BankCode: "058"}},
		{"missing bank", domain.InviteRequest{FirstName: "Ada", LastName: "Bello", PhoneNumber: "0801234567", Email: "a@b.c", AccountNumber: "0123456789"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.InviteUser(context.Background(), &tc.req)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
	if called {
		t.Error("invalid invite reached the network")
	}
}

func TestInviteUserSuccessNotifies(t *testing.T) {
	api := &mockAmbassadorAPI{
		inviteFn: func(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
			return &domain.APIResult{Status: true, StatusCode: 201, Message: "Invite sent"}, nil
		},
	}
	s, notifier := newAmbassadorStore(t, api)

	req := &domain.InviteRequest{
		FirstName:     "Ada",
		LastName:      "Bello",
		PhoneNumber:   "08012345678",
		Email:         "ada@helicode.io",
		AccountNumber: "0123456789",
		AccountName:   "ADA BELLO",
		BankCode:      "058",
	}
	res, err := s.InviteUser(context.Background(), req)
	if err != nil {
		t.Fatalf("InviteUser: %v", err)
	}
	if !res.Status || res.StatusCode != 201 {
		t.Errorf("result = %+v", res)
	}
	if len(notifier.Successes) != 1 {
		t.Fatalf("successes = %v", notifier.Successes)
	}
}

func TestInviteUserFailureNotifiesAndReraises(t *testing.T) {
	api := &mockAmbassadorAPI{
		inviteFn: func(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
			return nil, &domain.ErrAPI{StatusCode: 409, Message: "Email already invited"}
		},
	}
	s, notifier := newAmbassadorStore(t, api)

	req := &domain.InviteRequest{
		FirstName:     "Ada",
		LastName:      "Bello",
		PhoneNumber:   "08012345678",
		Email:         "ada@helicode.io",
		AccountNumber: "0123456789",
		BankCode:      "058",
	}
	if _, err := s.InviteUser(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.Errors) != 1 || notifier.Errors[0] != "Email already invited" {
		t.Errorf("errors = %v", notifier.Errors)
	}
	if s.Err() != "Email already invited" {
		t.Errorf("Err() = %q", s.Err())
	}
}

func TestResetVerificationClearsNameAndBank(t *testing.T) {
	api := &mockAmbassadorAPI{
		verifyFn: func(ctx context.Context, bankCode, accountNumber string) (*domain.AccountVerification, error) {
			return &domain.AccountVerification{AccountName: "JOHN DOE"}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.SelectBank(&domain.Bank{Code: "058", Name: "GTBank"})
	if err := s.VerifyAccount(context.Background(), "058", "0123456789"); err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}

	s.ResetVerification()

	if s.AccountName() != "" {
		t.Errorf("accountName = %q", s.AccountName())
	}
	if s.SelectedBank() != nil {
		t.Error("selected bank not cleared")
	}
}

func TestSearchFiltersAndResetsPage(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return seedAmbassadors(25), nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	s.SetPage(3)
	if s.Page() != 3 {
		t.Fatalf("Page() = %d", s.Page())
	}

	s.SetSearch("REF001")
	if s.Page() != 1 {
		t.Errorf("search did not reset page: %d", s.Page())
	}
	visible := s.VisibleAmbassadors()
	if len(visible) != 1 || visible[0].ID != "amb-001" {
		t.Errorf("filter wrong: %+v", visible)
	}
	if s.TotalPages() != 1 {
		t.Errorf("TotalPages() = %d", s.TotalPages())
	}

	// Case-insensitive, across name and email fields.
	s.SetSearch("first2")
	got := s.VisibleAmbassadors()
	// First2, First20..First24.
	if len(got) != 6 {
		t.Errorf("len = %d, want 6", len(got))
	}
}

func TestPaginationWindowsAndClamps(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return seedAmbassadors(25), nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	if s.TotalPages() != 3 {
		t.Fatalf("TotalPages() = %d, want 3", s.TotalPages())
	}

	page1 := s.VisibleAmbassadors()
	if len(page1) != 10 || page1[0].ID != "amb-000" {
		t.Errorf("page 1 wrong: len=%d first=%s", len(page1), page1[0].ID)
	}

	s.SetPage(3)
	page3 := s.VisibleAmbassadors()
	if len(page3) != 5 || page3[0].ID != "amb-020" {
		t.Errorf("page 3 wrong: len=%d", len(page3))
	}

	s.SetPage(99)
	if s.Page() != 3 {
		t.Errorf("page not clamped high: %d", s.Page())
	}
	s.SetPage(-1)
	if s.Page() != 1 {
		t.Errorf("page not clamped low: %d", s.Page())
	}
}

func TestEmptyListStillShowsOnePage(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return nil, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)
	s.FetchAmbassadors(context.Background())

	if s.TotalPages() != 1 {
		t.Errorf("TotalPages() = %d, want 1", s.TotalPages())
	}
	if got := s.VisibleAmbassadors(); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestStaleListFetchDiscarded(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	calls := 0
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			calls++
			if calls == 1 {
				close(slowStarted)
				<-release
				return []domain.Ambassador{{ID: "stale"}}, nil
			}
			return []domain.Ambassador{{ID: "fresh"}}, nil
		},
	}
	s, _ := newAmbassadorStore(t, api)

	done := make(chan struct{})
	go func() {
		s.FetchAmbassadors(context.Background())
		close(done)
	}()
	<-slowStarted

	// A newer fetch starts and finishes while the first is in flight.
	s.FetchAmbassadors(context.Background())
	close(release)
	<-done

	list := s.Ambassadors()
	if len(list) != 1 || list[0].ID != "fresh" {
		t.Errorf("stale fetch overwrote fresh data: %+v", list)
	}
	if s.ListLoading() {
		t.Error("loading flag stuck after discarded fetch")
	}
}

func TestAmbassadorListPersistsAcrossRestart(t *testing.T) {
	api := &mockAmbassadorAPI{
		ambassadorsFn: func(ctx context.Context) ([]domain.Ambassador, error) {
			return seedAmbassadors(4), nil
		},
	}
	snap := newMemSnapshot()
	notifier := &notify.Memory{}
	s := NewAmbassadorStore(api, snap, notifier, observability.NewMetrics(), zap.NewNop())
	s.FetchAmbassadors(context.Background())

	restored := NewAmbassadorStore(api, snap, notifier, observability.NewMetrics(), zap.NewNop())
	if got := len(restored.Ambassadors()); got != 4 {
		t.Errorf("restored list len = %d, want 4", got)
	}
}

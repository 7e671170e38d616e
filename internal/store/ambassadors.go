package store

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ambassadorTracer = otel.Tracer("store/ambassadors")

// ambassadorSnapshotName keys the persisted admin snapshot. Only the
// ambassador list survives restarts, mirroring what the console keeps
// in local storage.
const ambassadorSnapshotName = "ambassador-store"

type ambassadorSnapshot struct {
	Ambassadors []domain.Ambassador `json:"ambassadors"`
}

// AmbassadorStore owns the admin's view: the ambassador list, the
// selected ambassador, the bank reference list, the verified account
// name and the pagination cursor. Each concern carries its own loading
// flag so, e.g., verifying payment info never blocks the main list
// spinner; the error slot is shared.
type AmbassadorStore struct {
	mu       sync.RWMutex
	api      port.AmbassadorAPI
	snap     port.Snapshotter
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger

	ambassadors []domain.Ambassador
	referrals   []domain.Referral
	banks       []domain.Bank

	selectedID   string
	selectedBank *domain.Bank
	accountName  string

	searchTerm string
	pager      Paginator

	listLoading     bool
	bankLoading     bool
	verifyLoading   bool
	mutationLoading bool
	errMsg          string

	// Monotonic fencing tokens, one per fetched slice. A fetch that
	// resolves after a newer fetch started is discarded so stale data
	// never overwrites fresher state.
	listSeq     uint64
	referralSeq uint64
	bankSeq     uint64
}

// NewAmbassadorStore builds the admin store and restores the persisted
// ambassador list snapshot when one exists.
func NewAmbassadorStore(api port.AmbassadorAPI, snap port.Snapshotter, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *AmbassadorStore {
	s := &AmbassadorStore{
		api:      api,
		snap:     snap,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		pager:    NewPaginator(),
	}

	var persisted ambassadorSnapshot
	if snap.Load(ambassadorSnapshotName, &persisted) {
		s.ambassadors = persisted.Ambassadors
	}
	return s
}

// FetchAmbassadors replaces the ambassador list wholesale. Failures are
// absorbed into the store's error slot; read operations are never
// re-raised.
func (s *AmbassadorStore) FetchAmbassadors(ctx context.Context) {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.FetchAmbassadors")
	defer span.End()

	s.mu.Lock()
	s.listLoading = true
	s.errMsg = ""
	s.listSeq++
	seq := s.listSeq
	s.mu.Unlock()

	list, err := s.api.Ambassadors(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		s.logger.Debug("ambassadors: discarding superseded list fetch")
		return
	}
	s.listLoading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("ambassadors", "fetch_list", "error")
		s.logger.Warn("ambassadors: list fetch failed", zap.Error(err))
		return
	}

	s.ambassadors = list
	s.persistLocked()
	s.metrics.IncrStoreOp("ambassadors", "fetch_list", "success")
	s.logger.Debug("ambassadors: list replaced", zap.Int("count", len(list)))
}

// FetchReferrals replaces the referral slice with the given
// ambassador's history. Only one ambassador's referrals are held at a
// time.
func (s *AmbassadorStore) FetchReferrals(ctx context.Context, id string) {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.FetchReferrals")
	defer span.End()
	span.SetAttributes(attribute.String("ambassador.id", id))

	s.mu.Lock()
	s.listLoading = true
	s.errMsg = ""
	s.referralSeq++
	seq := s.referralSeq
	s.mu.Unlock()

	referrals, err := s.api.AmbassadorReferrals(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.referralSeq {
		return
	}
	s.listLoading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("ambassadors", "fetch_referrals", "error")
		s.logger.Warn("ambassadors: referral fetch failed", zap.String("id", id), zap.Error(err))
		return
	}

	s.referrals = referrals
	s.metrics.IncrStoreOp("ambassadors", "fetch_referrals", "success")
}

// FetchBanks replaces the bank reference list. It has its own loading
// flag so payment forms can show a bank spinner without blocking the
// rest of the view.
func (s *AmbassadorStore) FetchBanks(ctx context.Context) {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.FetchBanks")
	defer span.End()

	s.mu.Lock()
	s.bankLoading = true
	s.errMsg = ""
	s.bankSeq++
	seq := s.bankSeq
	s.mu.Unlock()

	banks, err := s.api.Banks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.bankSeq {
		return
	}
	s.bankLoading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("ambassadors", "fetch_banks", "error")
		s.logger.Warn("ambassadors: bank fetch failed", zap.Error(err))
		return
	}

	s.banks = banks
	s.metrics.IncrStoreOp("ambassadors", "fetch_banks", "success")
}

// VerifyAccount resolves the account holder name for a bank code and
// account number. On success the name is stored for display and for the
// next update/invite; on failure the previous name is left untouched
// and the caller decides whether to clear its input.
func (s *AmbassadorStore) VerifyAccount(ctx context.Context, bankCode, accountNumber string) error {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.VerifyAccount")
	defer span.End()
	span.SetAttributes(attribute.String("bank.code", bankCode))

	s.mu.Lock()
	s.verifyLoading = true
	s.errMsg = ""
	s.mu.Unlock()

	res, err := s.api.VerifyAccount(ctx, bankCode, accountNumber)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifyLoading = false

	if err != nil {
		s.errMsg = domain.ErrorMessage(err)
		s.metrics.IncrStoreOp("ambassadors", "verify_account", "error")
		s.logger.Warn("ambassadors: account verification failed",
			zap.String("bank_code", bankCode),
			zap.Error(err),
		)
		return err
	}

	s.accountName = res.AccountName
	s.metrics.IncrStoreOp("ambassadors", "verify_account", "success")
	return nil
}

// UpdateAmbassador patches one ambassador and merges the server's
// response into the matching list entry by id. Server fields win;
// fields the server did not return keep their local values. Unrelated
// entries are untouched. Failures mutate nothing and are re-raised.
func (s *AmbassadorStore) UpdateAmbassador(ctx context.Context, id string, patch *domain.AmbassadorPatch) error {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.UpdateAmbassador")
	defer span.End()
	span.SetAttributes(attribute.String("ambassador.id", id))

	s.mu.Lock()
	s.mutationLoading = true
	s.errMsg = ""
	s.mu.Unlock()

	resp, err := s.api.UpdateAmbassador(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutationLoading = false

	if err != nil {
		msg := domain.ErrorMessage(err)
		s.errMsg = msg
		s.notifier.Error(msg)
		s.metrics.IncrStoreOp("ambassadors", "update", "error")
		s.logger.Warn("ambassadors: update failed", zap.String("id", id), zap.Error(err))
		return err
	}

	for i := range s.ambassadors {
		if s.ambassadors[i].ID == id {
			resp.Apply(&s.ambassadors[i])
			break
		}
	}
	s.persistLocked()
	s.notifier.Success("Ambassador updated successfully")
	s.metrics.IncrStoreOp("ambassadors", "update", "success")
	s.logger.Info("ambassadors: updated", zap.String("id", id))
	return nil
}

// InviteUser validates the form fields client-side, then invites a new
// ambassador. Success emits a user-visible notification and hands the
// raw envelope result to the caller, which typically refreshes the
// list. Failures are re-raised with the server's message when present.
func (s *AmbassadorStore) InviteUser(ctx context.Context, req *domain.InviteRequest) (*domain.APIResult, error) {
	ctx, span := ambassadorTracer.Start(ctx, "AmbassadorStore.InviteUser")
	defer span.End()

	if err := validateInvite(req); err != nil {
		s.mu.Lock()
		s.errMsg = domain.ErrorMessage(err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.mutationLoading = true
	s.errMsg = ""
	s.mu.Unlock()

	result, err := s.api.InviteUser(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutationLoading = false

	if err != nil {
		msg := domain.ErrorMessage(err)
		s.errMsg = msg
		s.notifier.Error(msg)
		s.metrics.IncrStoreOp("ambassadors", "invite", "error")
		s.logger.Warn("ambassadors: invite failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	s.notifier.Success("Invitation sent successfully")
	s.metrics.IncrStoreOp("ambassadors", "invite", "success")
	s.logger.Info("ambassadors: invited", zap.String("email", req.Email))
	return result, nil
}

// SelectAmbassador opens (or closes, with nil) the edit view. The
// selection is held as an id reference into the list, so a later update
// can never leave the selection and the list disagreeing.
func (s *AmbassadorStore) SelectAmbassador(a *domain.Ambassador) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = a.ID
}

// Selected resolves the current selection against the list. Returns nil
// when nothing is selected or the selection no longer exists.
func (s *AmbassadorStore) Selected() *domain.Ambassador {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return nil
	}
	for i := range s.ambassadors {
		if s.ambassadors[i].ID == s.selectedID {
			a := s.ambassadors[i]
			return &a
		}
	}
	return nil
}

// SelectBank sets (or clears, with nil) the transient bank selection.
// Pure state set, no I/O.
func (s *AmbassadorStore) SelectBank(b *domain.Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b == nil {
		s.selectedBank = nil
		return
	}
	bank := *b
	s.selectedBank = &bank
}

// SelectedBank returns a copy of the selected bank, nil when none.
func (s *AmbassadorStore) SelectedBank() *domain.Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedBank == nil {
		return nil
	}
	bank := *s.selectedBank
	return &bank
}

// ResetVerification clears the verified account name and the bank
// selection, the form-reset performed after a successful invite.
func (s *AmbassadorStore) ResetVerification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountName = ""
	s.selectedBank = nil
}

// Ambassadors returns a copy of the full list, in the order received.
func (s *AmbassadorStore) Ambassadors() []domain.Ambassador {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ambassador, len(s.ambassadors))
	copy(out, s.ambassadors)
	return out
}

// Referrals returns a copy of the currently loaded referral history.
func (s *AmbassadorStore) Referrals() []domain.Referral {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Referral, len(s.referrals))
	copy(out, s.referrals)
	return out
}

// Banks returns the reference list collapsed to one entry per code,
// first occurrence winning.
func (s *AmbassadorStore) Banks() []domain.Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.DedupeBanks(s.banks)
}

// AccountName returns the last successfully verified account name.
func (s *AmbassadorStore) AccountName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountName
}

// SetSearch updates the active filter. A changed term always resets the
// page cursor to 1.
func (s *AmbassadorStore) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if term == s.searchTerm {
		return
	}
	s.searchTerm = term
	s.pager.Reset()
}

// SetPage moves the page cursor, clamped to the filtered page count.
func (s *AmbassadorStore) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pager.SetPage(page, len(s.filteredLocked()))
}

// Page returns the current 1-indexed page.
func (s *AmbassadorStore) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.Page()
}

// TotalPages returns the page count for the filtered set, floor 1.
func (s *AmbassadorStore) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pager.TotalPages(len(s.filteredLocked()))
}

// VisibleAmbassadors returns the current page of the filtered list.
func (s *AmbassadorStore) VisibleAmbassadors() []domain.Ambassador {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.filteredLocked()
	start, end := s.pager.Bounds(len(filtered))
	out := make([]domain.Ambassador, end-start)
	copy(out, filtered[start:end])
	return out
}

// filteredLocked applies the search term across first name, last name,
// email and referral code, case-insensitive.
func (s *AmbassadorStore) filteredLocked() []domain.Ambassador {
	if s.searchTerm == "" {
		return s.ambassadors
	}
	term := strings.ToLower(s.searchTerm)
	out := make([]domain.Ambassador, 0, len(s.ambassadors))
	for _, a := range s.ambassadors {
		if strings.Contains(strings.ToLower(a.FirstName), term) ||
			strings.Contains(strings.ToLower(a.LastName), term) ||
			strings.Contains(strings.ToLower(a.Email), term) ||
			strings.Contains(strings.ToLower(a.ReferralCode), term) {
			out = append(out, a)
		}
	}
	return out
}

// ListLoading reports an in-flight list or referral fetch.
func (s *AmbassadorStore) ListLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLoading
}

// BankLoading reports an in-flight bank list fetch.
func (s *AmbassadorStore) BankLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bankLoading
}

// VerifyLoading reports an in-flight account verification.
func (s *AmbassadorStore) VerifyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifyLoading
}

// MutationLoading reports an in-flight update or invite.
func (s *AmbassadorStore) MutationLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mutationLoading
}

// Err returns the shared error slot, empty when the last operation
// succeeded.
func (s *AmbassadorStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *AmbassadorStore) persistLocked() {
	snap := ambassadorSnapshot{Ambassadors: s.ambassadors}
	if err := s.snap.Save(ambassadorSnapshotName, snap); err != nil {
		s.logger.Warn("ambassadors: failed to persist snapshot", zap.Error(err))
	}
}

// validateInvite enforces the invite form schema before any network
// call: names of at least two characters, a 10-digit-or-longer phone
// number, a parseable email, a 10-character account number and a bank.
func validateInvite(req *domain.InviteRequest) error {
	if len(strings.TrimSpace(req.FirstName)) < 2 {
		return &domain.ErrValidation{Field: "firstName", Message: "First name must be at least 2 characters"}
	}
	if len(strings.TrimSpace(req.LastName)) < 2 {
		return &domain.ErrValidation{Field: "lastName", Message: "Last name must be at least 2 characters"}
	}
	if len(strings.TrimSpace(req.PhoneNumber)) < 10 {
		return &domain.ErrValidation{Field: "phoneNumber", Message: "Phone number must be at least 10 digits"}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return &domain.ErrValidation{Field: "email", Message: "Invalid email"}
	}
	if len(req.AccountNumber) < 10 {
		return &domain.ErrValidation{Field: "accountNumber", Message: "Account number is required"}
	}
	if req.BankCode == "" {
		return &domain.ErrValidation{Field: "bankCode", Message: "Bank is required"}
	}
	return nil
}

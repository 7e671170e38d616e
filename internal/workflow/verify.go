// Package workflow holds the multi-step form flows built on top of the
// stores. The bank verification flow watches the payment fields and
// resolves the account holder name automatically once both are
// complete.
package workflow

import (
	"context"
	"sync"
)

// requiredAccountNumberLength is the account number length that
// triggers automatic verification.
const requiredAccountNumberLength = 10

// AccountChecker is the slice of the ambassador store the verifier
// needs.
type AccountChecker interface {
	VerifyAccount(ctx context.Context, bankCode, accountNumber string) error
}

// FailurePolicy controls what happens to the account number field when
// verification fails.
type FailurePolicy int

const (
	// ClearAccountNumberOnFailure wipes the account number so the user
	// re-enters it. Used by the invite flow.
	ClearAccountNumberOnFailure FailurePolicy = iota
	// KeepAccountNumberOnFailure leaves the field as typed. Used by the
	// edit flow, where the existing value may still be wanted.
	KeepAccountNumberOnFailure
)

// AccountVerifier mirrors a payment form: it holds the bank code and
// account number fields and fires a verification automatically when a
// bank is chosen and the account number reaches ten digits. Partial
// input never triggers a call.
type AccountVerifier struct {
	mu      sync.Mutex
	checker AccountChecker
	policy  FailurePolicy

	bankCode      string
	accountNumber string
	verified      bool
}

// NewAccountVerifier creates a verifier over the given checker with the
// given failure policy.
func NewAccountVerifier(checker AccountChecker, policy FailurePolicy) *AccountVerifier {
	return &AccountVerifier{checker: checker, policy: policy}
}

// SetBankCode updates the bank field and verifies if the form is now
// complete. Changing the bank invalidates any previous verification.
func (v *AccountVerifier) SetBankCode(ctx context.Context, code string) error {
	v.mu.Lock()
	v.bankCode = code
	v.verified = false
	v.mu.Unlock()
	return v.maybeVerify(ctx)
}

// SetAccountNumber updates the account number field and verifies if the
// form is now complete.
func (v *AccountVerifier) SetAccountNumber(ctx context.Context, number string) error {
	v.mu.Lock()
	v.accountNumber = number
	v.verified = false
	v.mu.Unlock()
	return v.maybeVerify(ctx)
}

// maybeVerify runs the check when both fields are complete. On failure
// the clear policy wipes the account number field before the error is
// returned.
func (v *AccountVerifier) maybeVerify(ctx context.Context) error {
	v.mu.Lock()
	code, number := v.bankCode, v.accountNumber
	v.mu.Unlock()

	if code == "" || len(number) != requiredAccountNumberLength {
		return nil
	}

	err := v.checker.VerifyAccount(ctx, code, number)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		if v.policy == ClearAccountNumberOnFailure {
			v.accountNumber = ""
		}
		return err
	}
	v.verified = true
	return nil
}

// BankCode returns the current bank field value.
func (v *AccountVerifier) BankCode() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bankCode
}

// AccountNumber returns the current account number field value.
func (v *AccountVerifier) AccountNumber() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.accountNumber
}

// Verified reports whether the current field values passed
// verification.
func (v *AccountVerifier) Verified() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verified
}

// Reset clears both fields and the verified flag, the state of a
// freshly opened form.
func (v *AccountVerifier) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bankCode = ""
	v.accountNumber = ""
	v.verified = false
}

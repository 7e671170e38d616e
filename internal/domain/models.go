// Package domain holds the data model for the ambassador console:
// the authenticated session, ambassadors, banks, referrals and the
// envelope every API response arrives in.
package domain

// User is the identity returned by the login endpoint.
type User struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Session is the authenticated state owned by the auth store.
// Invariant: Authenticated implies User != nil and AccessToken != "".
type Session struct {
	User          *User  `json:"user"`
	AccessToken   string `json:"accessToken"`
	Role          Role   `json:"role"`
	Authenticated bool   `json:"isAuthenticated"`
}

// Ambassador is a referral-program participant managed by the admin.
// Bank fields are optional until payment info has been captured.
type Ambassador struct {
	ID                 string  `json:"id"`
	FirstName          string  `json:"firstName"`
	LastName           string  `json:"lastName"`
	Email              string  `json:"email"`
	PhoneNumber        string  `json:"phoneNumber"`
	ReferralCode       string  `json:"referralCode"`
	TotalUsersReferred int     `json:"totalUsersReferred"`
	TotalAmount        float64 `json:"totalAmount"`
	Role               string  `json:"role"`
	BankName           string  `json:"bankName,omitempty"`
	AccountNumber      string  `json:"accountNumber,omitempty"`
	BankCode           string  `json:"bankCode,omitempty"`
	AccountName        string  `json:"accountName,omitempty"`
}

// AmbassadorPatch is a partial ambassador used for PATCH requests and
// for merging the server's response back into local state. Only non-nil
// fields are sent or applied, so a partial server response merges
// without clobbering fields it did not return.
type AmbassadorPatch struct {
	FirstName     *string  `json:"firstName,omitempty"`
	LastName      *string  `json:"lastName,omitempty"`
	Email         *string  `json:"email,omitempty"`
	PhoneNumber   *string  `json:"phoneNumber,omitempty"`
	BankName      *string  `json:"bankName,omitempty"`
	AccountNumber *string  `json:"accountNumber,omitempty"`
	BankCode      *string  `json:"bankCode,omitempty"`
	AccountName   *string  `json:"accountName,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
}

// Apply shallow-merges the patch into a: server fields win, absent
// fields leave the target untouched.
func (p *AmbassadorPatch) Apply(a *Ambassador) {
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
	if p.BankName != nil {
		a.BankName = *p.BankName
	}
	if p.AccountNumber != nil {
		a.AccountNumber = *p.AccountNumber
	}
	if p.BankCode != nil {
		a.BankCode = *p.BankCode
	}
	if p.AccountName != nil {
		a.AccountName = *p.AccountName
	}
	if p.TotalAmount != nil {
		a.TotalAmount = *p.TotalAmount
	}
}

// Bank is a reference-list entry. Code is the unique key; the API may
// return duplicate codes and callers must collapse to first occurrence.
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DedupeBanks collapses a bank list to one entry per code, preferring
// the first occurrence. Order of first occurrences is preserved.
func DedupeBanks(banks []Bank) []Bank {
	seen := make(map[string]bool, len(banks))
	out := make([]Bank, 0, len(banks))
	for _, b := range banks {
		if seen[b.Code] {
			continue
		}
		seen[b.Code] = true
		out = append(out, b)
	}
	return out
}

// Referral statuses recognized by the console. The field stays an open
// string: unknown values pass through untouched.
const (
	ReferralPending    = "pending"
	ReferralSuccessful = "successful"
	ReferralFailed     = "failed"
)

// Referral is one referral conversion, read-only from the console side.
type Referral struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Recipient string  `json:"recipient"`
	Date      string  `json:"date"` // ISO-8601 date string as delivered
	Course    string  `json:"course,omitempty"`
	Name      string  `json:"name,omitempty"`
}

// ReferralMetrics is the self-service summary, replaced wholesale on
// each fetch.
type ReferralMetrics struct {
	TotalAmount        float64 `json:"totalAmount"`
	TotalUsersReferred int     `json:"totalUsersReferred"`
}

// AccountVerification is the payload of POST /admin/verify-account.
type AccountVerification struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankID        int    `json:"bank_id"`
}

// LoginData is the payload of POST /admin/login.
type LoginData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// InviteRequest is the body of POST /admin/invite-user.
type InviteRequest struct {
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankCode      string `json:"bankCode"`
}

// APIResult carries the envelope metadata of a mutation response back
// to the caller (the invite flow hands it to the UI untouched).
type APIResult struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

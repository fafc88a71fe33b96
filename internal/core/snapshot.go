package core

import "time"

// AccountKind distinguishes regular accounts from credit cards. The JSON
// field name stays "type" for compatibility with existing consumers.
type AccountKind string

const (
	KindAccount    AccountKind = "ACCOUNT"
	KindCreditCard AccountKind = "CREDIT_CARD"
)

// AccountRecord is one financial instrument as reported by a source.
type AccountRecord struct {
	Kind          AccountKind `json:"type"`
	Currency      string      `json:"currency"`
	AccountNumber string      `json:"account_number"`
	Balance       Amount      `json:"balance"`
	Available     Amount      `json:"available"`
	Logo          string      `json:"logo,omitempty"`
}

// SourceResult is the outcome of scraping one source: either a report
// (UpdatedAt + Accounts) or an Error, never both. Use NewSourceResult and
// NewSourceError so the two shapes stay mutually exclusive.
type SourceResult struct {
	UpdatedAt string          `json:"updated_at,omitempty"`
	Accounts  []AccountRecord `json:"accounts,omitempty"`
	Logo      string          `json:"logo,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// NewSourceResult builds a successful source result. Account order is
// preserved as given; it determines discovery order downstream.
func NewSourceResult(updatedAt string, accounts []AccountRecord, logo string) SourceResult {
	return SourceResult{UpdatedAt: updatedAt, Accounts: accounts, Logo: logo}
}

// NewSourceError builds a failed source result carrying only the message.
func NewSourceError(msg string) SourceResult {
	return SourceResult{Error: msg}
}

// Failed reports whether the result represents a scraping failure.
func (r SourceResult) Failed() bool {
	return r.Error != ""
}

// Snapshot is one complete aggregation cycle. It is replaced wholesale each
// cycle, never merged with the previous one. The JSON key "banks" is kept for
// backward compatibility with the original file format.
type Snapshot struct {
	UpdatedAt ISOTime                 `json:"updated_at"`
	Banks     map[string]SourceResult `json:"banks"`
}

// NewSnapshot returns an empty snapshot stamped with the given time.
func NewSnapshot(at time.Time) Snapshot {
	return Snapshot{
		UpdatedAt: ISOTime{at.Truncate(time.Second)},
		Banks:     make(map[string]SourceResult),
	}
}

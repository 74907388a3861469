package vault

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder selects how List orders entries.
type SortOrder string

const (
	SortAppAsc    SortOrder = "app_asc"
	SortAppDesc   SortOrder = "app_desc"
	SortUserAsc   SortOrder = "user_asc"
	SortUserDesc  SortOrder = "user_desc"
	SortVaultAsc  SortOrder = "vault_asc"
	SortVaultDesc SortOrder = "vault_desc"
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
)

// SortOrders lists every supported order, default first.
var SortOrders = []SortOrder{
	SortAppAsc, SortAppDesc,
	SortUserAsc, SortUserDesc,
	SortVaultAsc, SortVaultDesc,
	SortNewest, SortOldest,
}

// ParseSort converts s to a SortOrder. An empty string yields SortAppAsc.
func ParseSort(s string) (SortOrder, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortAppAsc, nil
	}
	for _, o := range SortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// Query narrows and orders a listing.
type Query struct {
	// Search matches app name, username or vault, case-insensitively.
	Search string
	// Vault restricts results to one vault (case-insensitive exact match).
	Vault string
	Sort  SortOrder
}

// List decrypts the vault and applies q.
func (s *Service) List(q Query) ([]Entry, error) {
	entries, err := s.ListDecrypted()
	if err != nil {
		return nil, err
	}
	return Filter(entries, q), nil
}

// Filter applies q to entries and returns a new slice.
func Filter(entries []Entry, q Query) []Entry {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	vaultName := strings.TrimSpace(q.Vault)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if vaultName != "" && !strings.EqualFold(e.Vault, vaultName) {
			continue
		}
		if needle != "" && !matches(e, needle) {
			continue
		}
		out = append(out, e)
	}

	sortEntries(out, q.Sort)
	return out
}

func matches(e Entry, needle string) bool {
	return strings.Contains(strings.ToLower(e.AppName), needle) ||
		strings.Contains(strings.ToLower(e.Username), needle) ||
		strings.Contains(strings.ToLower(e.Vault), needle)
}

func sortEntries(entries []Entry, order SortOrder) {
	var less func(a, b Entry) bool
	switch order {
	case SortAppDesc:
		less = func(a, b Entry) bool { return lower(a.AppName) > lower(b.AppName) }
	case SortUserAsc:
		less = func(a, b Entry) bool { return lower(a.Username) < lower(b.Username) }
	case SortUserDesc:
		less = func(a, b Entry) bool { return lower(a.Username) > lower(b.Username) }
	case SortVaultAsc:
		less = func(a, b Entry) bool { return lower(a.Vault) < lower(b.Vault) }
	case SortVaultDesc:
		less = func(a, b Entry) bool { return lower(a.Vault) > lower(b.Vault) }
	case SortNewest:
		less = func(a, b Entry) bool { return addedUnix(a) > addedUnix(b) }
	case SortOldest:
		less = func(a, b Entry) bool { return addedUnix(a) < addedUnix(b) }
	default:
		less = func(a, b Entry) bool { return lower(a.AppName) < lower(b.AppName) }
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

func lower(s string) string { return strings.ToLower(s) }

// addedUnix sorts entries with unparseable dates as the oldest.
func addedUnix(e Entry) int64 {
	t, ok := e.Added()
	if !ok {
		return 0
	}
	return t.UnixNano()
}

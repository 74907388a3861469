package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{ID: "bob::mail", AppName: "mail", Username: "bob", Vault: "Work", DateAdded: "2024-03-01T00:00:00Z"},
		{ID: "alice::GitHub", AppName: "GitHub", Username: "alice", Vault: "Personal", DateAdded: "2024-01-01T00:00:00Z"},
		{ID: "carol::bank", AppName: "bank", Username: "carol", Vault: "Finance", DateAdded: "2024-02-01T10:00:00.5"},
		{ID: "dave::zoom", AppName: "zoom", Username: "dave", Vault: "Work", DateAdded: "garbage"},
	}
}

func apps(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.AppName
	}
	return out
}

func TestParseSort(t *testing.T) {
	o, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortAppAsc, o)

	o, err = ParseSort(" NEWEST ")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, o)

	_, err = ParseSort("random")
	require.ErrorIs(t, err, ErrUnknownSort)
}

func TestFilter_Sort(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortAppAsc, []string{"bank", "GitHub", "mail", "zoom"}},
		{SortAppDesc, []string{"zoom", "mail", "GitHub", "bank"}},
		{SortUserAsc, []string{"GitHub", "mail", "bank", "zoom"}},
		{SortUserDesc, []string{"zoom", "bank", "mail", "GitHub"}},
		{SortVaultAsc, []string{"bank", "GitHub", "mail", "zoom"}},
		{SortVaultDesc, []string{"mail", "zoom", "GitHub", "bank"}},
		{SortNewest, []string{"mail", "bank", "GitHub", "zoom"}},
		{SortOldest, []string{"zoom", "GitHub", "bank", "mail"}},
		{"", []string{"bank", "GitHub", "mail", "zoom"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := Filter(sampleEntries(), Query{Sort: tt.order})
			assert.Equal(t, tt.want, apps(got))
		})
	}
}

func TestFilter_Search(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"by app case-insensitive", "github", []string{"GitHub"}},
		{"by username", "CAR", []string{"bank"}},
		{"by vault", "work", []string{"mail", "zoom"}},
		{"blank matches all", "  ", []string{"bank", "GitHub", "mail", "zoom"}},
		{"no match", "nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleEntries(), Query{Search: tt.search})
			assert.Equal(t, tt.want, apps(got))
		})
	}
}

func TestFilter_Vault(t *testing.T) {
	got := Filter(sampleEntries(), Query{Vault: "work", Sort: SortAppDesc})
	assert.Equal(t, []string{"zoom", "mail"}, apps(got))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := sampleEntries()
	_ = Filter(in, Query{Sort: SortAppDesc})
	assert.Equal(t, sampleEntries(), in)
}

func TestService_List(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.AddEntry("mail", "bob", "pw1", "Work")
	require.NoError(t, err)
	_, err = env.svc.AddEntry("bank", "carol", "pw2", "Finance")
	require.NoError(t, err)

	got, err := env.svc.List(Query{Search: "fin"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pw2", got[0].Password)
}

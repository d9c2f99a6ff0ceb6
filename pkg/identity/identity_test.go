package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphseal/graphseal/pkg/identity"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantName  string
		wantEmail string
	}{
		{
			name:      "name and bracketed email",
			raw:       "Joe Tester <joe@foo.bar>",
			wantName:  "Joe Tester",
			wantEmail: "joe@foo.bar",
		},
		{
			name:      "name with invalid email",
			raw:       "name noemail",
			wantName:  "name noemail",
			wantEmail: identity.NoValidContact,
		},
		{
			name:      "bare email",
			raw:       "joe@foo.bar",
			wantName:  "joe@foo.bar",
			wantEmail: "joe@foo.bar",
		},
		{
			name:      "bracketed bare email",
			raw:       "<joe@foo.bar>",
			wantName:  "joe@foo.bar",
			wantEmail: "joe@foo.bar",
		},
		{
			name:      "single token without address",
			raw:       "pipeline-robot",
			wantName:  "pipeline-robot",
			wantEmail: identity.NoValidContact,
		},
		{
			name:      "comment between name and email",
			raw:       "Joe Tester (work) <joe@foo.bar>",
			wantName:  "Joe Tester (work)",
			wantEmail: "joe@foo.bar",
		},
		{
			name:      "empty string",
			raw:       "",
			wantName:  "",
			wantEmail: identity.NoValidContact,
		},
		{
			name:      "unbracketed trailing email",
			raw:       "Joe Tester joe@foo.bar",
			wantName:  "Joe Tester",
			wantEmail: "joe@foo.bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := identity.Parse(tt.raw)
			require.Equal(t, tt.wantName, got.Name)
			require.Equal(t, tt.wantEmail, got.Email)
		})
	}
}

func TestKeyIdentityPrimary(t *testing.T) {
	key := identity.KeyIdentity{
		Algorithm:   "RSA",
		Fingerprint: "ABCD1234",
		Identities:  []string{"Joe Tester <joe@foo.bar>", "Joe Backup <joe@backup.example>"},
	}
	require.Equal(t, identity.Identity{Name: "Joe Tester", Email: "joe@foo.bar"}, key.Primary())
	require.Equal(t, "Joe Tester <joe@foo.bar>", key.DisplayID())
}

func TestKeyIdentityWithoutIdentities(t *testing.T) {
	key := identity.KeyIdentity{Fingerprint: "ABCD1234"}
	require.Equal(t, identity.Identity{}, key.Primary())
	require.Equal(t, "ABCD1234", key.DisplayID())
}

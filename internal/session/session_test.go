package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = Options{DefaultRole: "Risk Analyst", DefaultDepartment: "Risk Management"}

func TestLoginDerivesDisplayName(t *testing.T) {
	s := NewStore(testOpts)
	require.True(t, s.Login("jane.doe@x.com", "anything"))

	u, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", u.Name)
	assert.Equal(t, "jane.doe@x.com", u.Email)
	assert.Equal(t, "Risk Analyst", u.Role)
	assert.Equal(t, "Risk Management", u.Department)
	assert.Contains(t, u.Avatar, "name=Jane+Doe")
}

func TestLoginRequiresBothFields(t *testing.T) {
	s := NewStore(testOpts)
	assert.False(t, s.Login("", ""))
	assert.False(t, s.Login("jane@x.com", ""))
	assert.False(t, s.Login("", "secret"))
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestLogoutClearsUser(t *testing.T) {
	s := NewStore(testOpts)
	require.True(t, s.Login("john.smith@company.com", "pw"))
	s.Logout()
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"jane.doe@x.com":       "Jane Doe",
		"JOHN.SMITH@corp.io":   "John Smith",
		"solo@x.com":           "Solo",
		"a.b.c@x.com":          "A B C",
		"admin":                "Admin",
		"double..dot@x.com":    "Double Dot",
		"mary.ann.lee@corp.io": "Mary Ann Lee",
	}
	for email, want := range cases {
		assert.Equal(t, want, DisplayName(email), email)
	}
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", Initials("Jane Doe"))
	assert.Equal(t, "", Initials(""))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(testOpts)
	r.NewID = func() string { return "sid-1" }
	s := NewStore(testOpts)
	require.True(t, s.Login("jane.doe@x.com", "pw"))
	assert.Equal(t, "sid-1", r.Register(s))

	got, ok := r.Get("sid-1")
	require.True(t, ok)
	u, ok := got.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", u.Name)

	r.Delete("sid-1")
	_, ok = r.Get("sid-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryDropsIdleSessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{"a", "b"}
	r := NewRegistry(testOpts)
	r.IdleTTL = time.Hour
	r.Now = func() time.Time { return now }
	r.NewID = func() string { id := ids[0]; ids = ids[1:]; return id }

	r.Register(NewStore(testOpts))
	now = now.Add(30 * time.Minute)
	_, ok := r.Get("a")
	require.True(t, ok, "touch within ttl")

	now = now.Add(61 * time.Minute)
	_, ok = r.Get("a")
	assert.False(t, ok)

	r.Register(NewStore(testOpts))
	assert.Equal(t, 1, r.Len())
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := TokenCodec{Secret: []byte("s3cret"), TTL: time.Hour, Now: func() time.Time { return now }}
	u := NewUser("jane.doe@x.com", testOpts)

	token, err := codec.Issue(u)
	require.NoError(t, err)
	parsed, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u, parsed)

	later := TokenCodec{Secret: codec.Secret, TTL: time.Hour, Now: func() time.Time { return now.Add(2 * time.Hour) }}
	_, err = later.Parse(token)
	assert.Error(t, err)

	other := TokenCodec{Secret: []byte("other"), TTL: time.Hour, Now: codec.Now}
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenRequiresSecret(t *testing.T) {
	_, err := TokenCodec{}.Issue(NewUser("a@b.c", testOpts))
	assert.Error(t, err)
}

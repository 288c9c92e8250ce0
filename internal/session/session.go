// Package session holds the signed-in dashboard user. Login is a stub: any
// non-empty email and password succeed and no credential is checked.
package session

import (
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"qadash/internal/domain"
)

type Options struct {
	DefaultRole       string
	DefaultDepartment string
}

// Store holds at most one current user.
type Store struct {
	mu   sync.RWMutex
	opts Options
	user *domain.User
}

func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// Login sets the current user derived from email. It is a no-op returning
// false when either field is empty.
func (s *Store) Login(email, password string) bool {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false
	}
	u := NewUser(email, s.opts)
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return true
}

func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// NewUser builds the stub profile for email.
func NewUser(email string, opts Options) domain.User {
	name := DisplayName(email)
	return domain.User{
		ID:         strings.ToLower(email),
		Name:       name,
		Role:       opts.DefaultRole,
		Email:      email,
		Department: opts.DefaultDepartment,
		Avatar:     AvatarURL(name),
	}
}

// DisplayName capitalizes each dot-separated segment of the email local part
// and joins them with spaces: "jane.doe@x.com" becomes "Jane Doe".
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	caser := cases.Title(language.Und)
	var parts []string
	for _, seg := range strings.Split(local, ".") {
		if seg == "" {
			continue
		}
		parts = append(parts, caser.String(seg))
	}
	return strings.Join(parts, " ")
}

func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=10b981&color=fff"
}

// Initials returns the first letter of each word in name.
func Initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		for _, r := range w {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 5, 18, 20, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return m.err
}

var codeRe = regexp.MustCompile(`\b\d{6}\b`)

// lastCode extracts the code from the most recent message.
func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	code := codeRe.FindString(m.sent[len(m.sent)-1].body)
	require.NotEmpty(t, code, "no code in mail body")
	return code
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func memStorage() (Storage, *memory.Manager) {
	m := memory.NewManager()
	return Storage{Tx: m, Repos: m}, m
}

type fixture struct {
	clock    *testClock
	mem      *memory.Manager
	mailer   *fakeMailer
	issuer   *auth.Issuer
	accounts *AccountStore
	refresh  *RefreshTokenService
	codes    *VerificationService
	session  *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, mem := memStorage()
	clock := newTestClock()
	ml := &fakeMailer{}

	issuer, err := auth.NewIssuer(testSigningKey, auth.WithClock(clock.Now))
	require.NoError(t, err)

	f := &fixture{
		clock:    clock,
		mem:      mem,
		mailer:   ml,
		issuer:   issuer,
		accounts: NewAccountStore(st, WithClock(clock.Now)),
		refresh:  NewRefreshTokenService(st, WithClock(clock.Now)),
		codes:    NewVerificationService(st, ml, WithClock(clock.Now)),
	}
	f.session = NewSessionService(f.accounts, f.issuer, f.refresh, f.codes, WithClock(clock.Now))
	return f
}

// Package memory provides mutex-guarded in-memory repositories with the same
// semantics as the PostgreSQL ones. It backs service and transport tests.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
)

var knownRoles = map[string]bool{common.AdminRole: true, common.DefaultRole: true}

type store struct {
	mu        sync.Mutex
	users     map[string]models.User
	roles     map[string]map[string]bool
	tokens    map[string]models.RefreshToken // by hash
	codes     map[string]models.VerificationCode
	txMu      sync.Mutex
	failNextN int
	failErr   error
}

// Manager implements repomanager.RepositoryManager and dbx.Transactor over a
// single shared store. The DBTX arguments are ignored.
type Manager struct {
	s *store
}

func NewManager() *Manager {
	return &Manager{s: &store{
		users:  map[string]models.User{},
		roles:  map[string]map[string]bool{},
		tokens: map[string]models.RefreshToken{},
		codes:  map[string]models.VerificationCode{},
	}}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &userRepo{m.s} }

func (m *Manager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &tokenRepo{m.s} }

func (m *Manager) VerificationCodes(dbx.DBTX) verificationcodes.Repository { return &codeRepo{m.s} }

// WithinTx serializes units of work. It does not roll back partial writes.
func (m *Manager) WithinTx(ctx context.Context, fn dbx.TxFunc) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()
	return fn(ctx, nil)
}

// FailNext makes the next n repository calls return err.
func (m *Manager) FailNext(n int, err error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.failNextN, m.s.failErr = n, err
}

// RefreshTokensOf returns a snapshot of the user's token records.
func (m *Manager) RefreshTokensOf(userID string) []models.RefreshToken {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.RefreshToken
	for _, t := range m.s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CodesOf returns a snapshot of the user's verification code records.
func (m *Manager) CodesOf(userID string) []models.VerificationCode {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.VerificationCode
	for _, c := range m.s.codes {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// acquire locks the store. An injected failure is returned with the store
// already unlocked.
func (s *store) acquire() (func(), error) {
	s.mu.Lock()
	if s.failNextN > 0 {
		s.failNextN--
		err := s.failErr
		s.mu.Unlock()
		return nil, err
	}
	return s.mu.Unlock, nil
}

type userRepo struct{ s *store }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return common.ErrAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) SetEmailConfirmed(_ context.Context, id string) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.EmailConfirmed = true
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	delete(r.s.roles, id)
	for h, t := range r.s.tokens {
		if t.UserID == id {
			delete(r.s.tokens, h)
		}
	}
	for k, c := range r.s.codes {
		if c.UserID == id {
			delete(r.s.codes, k)
		}
	}
	return nil
}

func (r *userRepo) AddRole(_ context.Context, userID, role string) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	if !knownRoles[role] {
		return nil
	}
	if r.s.roles[userID] == nil {
		r.s.roles[userID] = map[string]bool{}
	}
	r.s.roles[userID][role] = true
	return nil
}

func (r *userRepo) GetRoles(_ context.Context, userID string) ([]string, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []string
	for role := range r.s.roles[userID] {
		out = append(out, role)
	}
	sort.Strings(out)
	return out, nil
}

type tokenRepo struct{ s *store }

func (r *tokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.tokens[t.TokenHash]; ok {
		return common.ErrAlreadyExists
	}
	r.s.tokens[t.TokenHash] = *t
	return nil
}

func (r *tokenRepo) FindActive(_ context.Context, hash string, now time.Time) (*models.RefreshToken, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	t, ok := r.s.tokens[hash]
	if !ok || !t.Active(now) {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *tokenRepo) RevokeForUser(_ context.Context, hash, userID string, now time.Time) (bool, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return false, err
	}
	defer unlock()
	t, ok := r.s.tokens[hash]
	if !ok || t.UserID != userID || !t.Active(now) {
		return false, nil
	}
	r.s.revoke(t, now)
	return true, nil
}

func (r *tokenRepo) Revoke(_ context.Context, hash string, now time.Time) (bool, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return false, err
	}
	defer unlock()
	t, ok := r.s.tokens[hash]
	if !ok || !t.Active(now) {
		return false, nil
	}
	r.s.revoke(t, now)
	return true, nil
}

func (r *tokenRepo) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	for _, t := range r.s.tokens {
		if t.UserID == userID && t.Active(now) {
			r.s.revoke(t, now)
			n++
		}
	}
	return n, nil
}

func (s *store) revoke(t models.RefreshToken, now time.Time) {
	at := now
	t.Revoked = true
	t.RevokedAt = &at
	s.tokens[t.TokenHash] = t
}

type codeRepo struct{ s *store }

func (r *codeRepo) Create(_ context.Context, c *models.VerificationCode) error {
	unlock, err := r.s.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	r.s.codes[c.ID] = *c
	return nil
}

func (r *codeRepo) FindLatestEligible(_ context.Context, userID string, now time.Time) (*models.VerificationCode, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var best *models.VerificationCode
	for _, c := range r.s.codes {
		if c.UserID != userID || !c.Eligible(now) {
			continue
		}
		if best == nil || newerCode(c, *best) {
			cc := c
			best = &cc
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

// newerCode orders codes by expiry, then creation, then id, all descending.
func newerCode(a, b models.VerificationCode) bool {
	if !a.ExpiresAt.Equal(b.ExpiresAt) {
		return a.ExpiresAt.After(b.ExpiresAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *codeRepo) MarkUsed(_ context.Context, id string) (bool, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return false, err
	}
	defer unlock()
	c, ok := r.s.codes[id]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	r.s.codes[id] = c
	return true, nil
}

func (r *codeRepo) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	unlock, err := r.s.acquire()
	if err != nil {
		return 0, err
	}
	defer unlock()
	var n int64
	for id, c := range r.s.codes {
		if c.ExpiresAt.Before(cutoff) {
			delete(r.s.codes, id)
			n++
		}
	}
	return n, nil
}

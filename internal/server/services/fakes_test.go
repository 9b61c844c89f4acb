package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/clientprofiles"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/plans"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/referrals"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/stats"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// storeData is everything the fake store persists. It is copied on begin and
// restored on rollback.
type storeData struct {
	accounts  map[string]*models.Account
	profiles  map[string]*models.ClientProfile
	edges     []*models.ReferralEdge
	refresh   map[string]*models.RefreshToken
	lastLogin map[string]int
}

func (d *storeData) clone() *storeData {
	c := &storeData{
		accounts:  make(map[string]*models.Account, len(d.accounts)),
		profiles:  make(map[string]*models.ClientProfile, len(d.profiles)),
		edges:     make([]*models.ReferralEdge, 0, len(d.edges)),
		refresh:   make(map[string]*models.RefreshToken, len(d.refresh)),
		lastLogin: make(map[string]int, len(d.lastLogin)),
	}
	for k, v := range d.accounts {
		a := *v
		c.accounts[k] = &a
	}
	for k, v := range d.profiles {
		p := *v
		c.profiles[k] = &p
	}
	for _, e := range d.edges {
		ee := *e
		c.edges = append(c.edges, &ee)
	}
	for k, v := range d.refresh {
		r := *v
		c.refresh[k] = &r
	}
	for k, v := range d.lastLogin {
		c.lastLogin[k] = v
	}
	return c
}

// fakeStore is an in-memory stand-in for the database. Transactions are
// serialized by txMu and rolled back by restoring a snapshot.
type fakeStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	data     *storeData
	snapshot *storeData
	seq      int

	commits   int
	rollbacks int
	// writesOutsideTx counts registration writes that bypassed a transaction.
	writesOutsideTx int

	// fault injection, keyed by operation name ("accounts.Create", ...)
	failOn map[string]error
	// referralCodeTaken makes that many profile inserts fail with a code collision
	referralCodeTaken int
	// incrementRows overrides rows affected by IncrementTotalReferrals when >= 0
	incrementRows int

	// afterRefreshFind runs after a refresh token lookup, outside the store
	// lock, to interleave a concurrent rotation.
	afterRefreshFind func(token string)

	activeSubscriptions int64
	revenue             float64
	subscriptions       map[string]*models.ActiveSubscription
	plans               []models.Plan
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: &storeData{
			accounts:  map[string]*models.Account{},
			profiles:  map[string]*models.ClientProfile{},
			refresh:   map[string]*models.RefreshToken{},
			lastLogin: map[string]int{},
		},
		failOn:        map[string]error{},
		incrementRows: -1,
		subscriptions: map[string]*models.ActiveSubscription{},
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) fail(op string) error {
	return s.failOn[op]
}

func (s *fakeStore) noteWrite(db dbx.DBTX) {
	if _, ok := db.(*sql.Tx); !ok {
		s.writesOutsideTx++
	}
}

func (s *fakeStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = s.data.clone()
}

func (s *fakeStore) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.commits++
}

func (s *fakeStore) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		s.data = s.snapshot
		s.snapshot = nil
	}
	s.rollbacks++
}

func (s *fakeStore) accountByEmail(email string) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.data.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

func (s *fakeStore) profileByAccount(accountID string) *models.ClientProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.profiles {
		if p.AccountID == accountID {
			return p
		}
	}
	return nil
}

func (s *fakeStore) counts() (accounts, profiles, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.accounts), len(s.data.profiles), len(s.data.edges)
}

// seedClient inserts a committed client account with the given referral code.
func (s *fakeStore) seedClient(name, email, hash, code string, status models.AccountStatus) (*models.Account, *models.ClientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &models.Account{ID: s.nextID("acc"), Name: name, Email: email, PasswordHash: hash,
		Role: models.RoleClient, Status: status, CreatedAt: time.Now()}
	s.data.accounts[a.ID] = a
	p := &models.ClientProfile{ID: s.nextID("prof"), AccountID: a.ID, ReferralCode: code}
	s.data.profiles[p.ID] = p
	return a, p
}

func (s *fakeStore) seedAdmin(email, hash string) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &models.Account{ID: s.nextID("acc"), Name: "Admin", Email: email, PasswordHash: hash,
		Role: models.RoleAdmin, Status: models.AccountActive, CreatedAt: time.Now()}
	s.data.accounts[a.ID] = a
	return a
}

// --- database/sql plumbing that reports transaction outcomes to the store ---

type txConnector struct{ s *fakeStore }

func (c *txConnector) Connect(context.Context) (driver.Conn, error) { return &txConn{s: c.s}, nil }
func (c *txConnector) Driver() driver.Driver                        { return txDriver{} }

type txDriver struct{}

func (txDriver) Open(string) (driver.Conn, error) { return nil, errors.New("open via connector") }

type txConn struct{ s *fakeStore }

func (c *txConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("fakes do not run SQL") }
func (c *txConn) Close() error                        { return nil }
func (c *txConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *txConn) BeginTx(ctx context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if err := c.s.fail("begin"); err != nil {
		return nil, err
	}
	c.s.txMu.Lock()
	c.s.begin()
	return &txHandle{s: c.s}, nil
}

type txHandle struct{ s *fakeStore }

func (t *txHandle) Commit() error {
	defer t.s.txMu.Unlock()
	if err := t.s.fail("commit"); err != nil {
		t.s.rollback()
		return err
	}
	t.s.commit()
	return nil
}

func (t *txHandle) Rollback() error {
	defer t.s.txMu.Unlock()
	t.s.rollback()
	return nil
}

func (s *fakeStore) openDB() *sql.DB {
	return sql.OpenDB(&txConnector{s: s})
}

// --- repositories ---

type fakeAccounts struct {
	s  *fakeStore
	db dbx.DBTX
}

func (r *fakeAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if err := r.s.fail("accounts.Create"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.noteWrite(r.db)
	for _, existing := range r.s.data.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrorEmailTaken
		}
	}
	a.ID = r.s.nextID("acc")
	a.CreatedAt = time.Now()
	c := *a
	r.s.data.accounts[a.ID] = &c
	return a, nil
}

func (r *fakeAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := r.s.fail("accounts.GetByEmail"); err != nil {
		return nil, err
	}
	if a := r.s.accountByEmail(email); a != nil {
		c := *a
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if err := r.s.fail("accounts.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.data.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccounts) UpdateLastLogin(ctx context.Context, id string) error {
	if err := r.s.fail("accounts.UpdateLastLogin"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if a, ok := r.s.data.accounts[id]; ok {
		a.LastLogin = &now
	}
	r.s.data.lastLogin[id]++
	return nil
}

func (r *fakeAccounts) CountClients(ctx context.Context) (int64, error) {
	if err := r.s.fail("accounts.CountClients"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.data.accounts {
		if a.Role == models.RoleClient {
			n++
		}
	}
	return n, nil
}

type fakeProfiles struct {
	s  *fakeStore
	db dbx.DBTX
}

func (r *fakeProfiles) Create(ctx context.Context, p *models.ClientProfile) (*models.ClientProfile, error) {
	if err := r.s.fail("profiles.Create"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.noteWrite(r.db)
	if r.s.referralCodeTaken > 0 {
		r.s.referralCodeTaken--
		return nil, common.ErrorReferralCodeTaken
	}
	for _, existing := range r.s.data.profiles {
		if existing.ReferralCode == p.ReferralCode {
			return nil, common.ErrorReferralCodeTaken
		}
	}
	p.ID = r.s.nextID("prof")
	c := *p
	r.s.data.profiles[p.ID] = &c
	return p, nil
}

func (r *fakeProfiles) find(match func(*models.ClientProfile) bool) (*models.ClientProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.profiles {
		if match(p) {
			c := *p
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeProfiles) GetByReferralCode(ctx context.Context, code string) (*models.ClientProfile, error) {
	if err := r.s.fail("profiles.GetByReferralCode"); err != nil {
		return nil, err
	}
	return r.find(func(p *models.ClientProfile) bool { return p.ReferralCode == code })
}

func (r *fakeProfiles) GetByAccountID(ctx context.Context, accountID string) (*models.ClientProfile, error) {
	if err := r.s.fail("profiles.GetByAccountID"); err != nil {
		return nil, err
	}
	return r.find(func(p *models.ClientProfile) bool { return p.AccountID == accountID })
}

func (r *fakeProfiles) IncrementTotalReferrals(ctx context.Context, id string) error {
	if err := r.s.fail("profiles.IncrementTotalReferrals"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.noteWrite(r.db)
	if r.s.incrementRows >= 0 && r.s.incrementRows != 1 {
		return fmt.Errorf("increment total_referrals for %s: %d rows affected", id, r.s.incrementRows)
	}
	p, ok := r.s.data.profiles[id]
	if !ok {
		return fmt.Errorf("increment total_referrals for %s: 0 rows affected", id)
	}
	p.TotalReferrals++
	return nil
}

type fakeReferrals struct {
	s  *fakeStore
	db dbx.DBTX
}

func (r *fakeReferrals) Create(ctx context.Context, e *models.ReferralEdge) (*models.ReferralEdge, error) {
	if err := r.s.fail("referrals.Create"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.noteWrite(r.db)
	e.ID = r.s.nextID("edge")
	e.CreatedAt = time.Now()
	c := *e
	r.s.data.edges = append(r.s.data.edges, &c)
	return e, nil
}

type fakeRefresh struct {
	s  *fakeStore
	db dbx.DBTX
}

func (r *fakeRefresh) Create(ctx context.Context, accountID string, token string, validity time.Duration) error {
	if err := r.s.fail("refresh.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.refresh[token] = &models.RefreshToken{ID: r.s.nextID("rt"), AccountID: accountID, Token: token,
		Expires: time.Now().Add(validity), CreatedAt: time.Now()}
	return nil
}

func (r *fakeRefresh) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if err := r.s.fail("refresh.Find"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.refresh[token]
	var found *models.RefreshToken
	if ok {
		c := *t
		found = &c
	}
	hook := r.s.afterRefreshFind
	r.s.mu.Unlock()
	if hook != nil {
		hook(token)
	}
	r.s.mu.Lock()
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *fakeRefresh) Delete(ctx context.Context, token string) error {
	if err := r.s.fail("refresh.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.refresh[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.data.refresh, token)
	return nil
}

func (r *fakeRefresh) DeleteExpired(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.data.refresh {
		if !t.Expires.After(time.Now()) {
			delete(r.s.data.refresh, k)
			n++
		}
	}
	return n, nil
}

type fakePlans struct{ s *fakeStore }

func (r *fakePlans) ListActive(ctx context.Context) ([]models.Plan, error) {
	if err := r.s.fail("plans.ListActive"); err != nil {
		return nil, err
	}
	return r.s.plans, nil
}

type fakeStats struct{ s *fakeStore }

func (r *fakeStats) CountActiveSubscriptions(ctx context.Context) (int64, error) {
	if err := r.s.fail("stats.CountActiveSubscriptions"); err != nil {
		return 0, err
	}
	return r.s.activeSubscriptions, nil
}

func (r *fakeStats) SumCompletedPayments(ctx context.Context) (float64, error) {
	if err := r.s.fail("stats.SumCompletedPayments"); err != nil {
		return 0, err
	}
	return r.s.revenue, nil
}

func (r *fakeStats) ActiveSubscriptionForAccount(ctx context.Context, accountID string) (*models.ActiveSubscription, error) {
	if err := r.s.fail("stats.ActiveSubscriptionForAccount"); err != nil {
		return nil, err
	}
	if sub, ok := r.s.subscriptions[accountID]; ok {
		return sub, nil
	}
	return nil, common.ErrorNotFound
}

type fakeRepoManager struct{ s *fakeStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository {
	return &fakeAccounts{s: m.s, db: db}
}
func (m *fakeRepoManager) ClientProfiles(db dbx.DBTX) clientprofiles.Repository {
	return &fakeProfiles{s: m.s, db: db}
}
func (m *fakeRepoManager) Referrals(db dbx.DBTX) referrals.Repository {
	return &fakeReferrals{s: m.s, db: db}
}
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &fakeRefresh{s: m.s, db: db}
}
func (m *fakeRepoManager) Plans(db dbx.DBTX) plans.Repository { return &fakePlans{s: m.s} }
func (m *fakeRepoManager) Stats(db dbx.DBTX) stats.Repository { return &fakeStats{s: m.s} }

package provision

import (
	"context"
	"sync"
	"testing"
	"time"

	"shopfront/internal/directory"
	"shopfront/internal/model"
)

type fakeDirectory struct {
	mu   sync.Mutex
	recs map[string]*model.TenantDomain
	logs map[string][]directory.CheckEntry
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		recs: make(map[string]*model.TenantDomain),
		logs: make(map[string][]directory.CheckEntry),
	}
}

func (f *fakeDirectory) add(tenantID, domain string, status model.DomainStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := domain
	f.recs[tenantID] = &model.TenantDomain{TenantID: tenantID, Domain: &d, Status: status}
}

func (f *fakeDirectory) FindByTenant(_ context.Context, tenantID string) (*model.TenantDomain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[tenantID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeDirectory) FindByDomain(_ context.Context, domain string) (*model.TenantDomain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.recs {
		if rec.Domain != nil && *rec.Domain == domain {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) UpdateStatusFrom(_ context.Context, tenantID string, from []model.DomainStatus, to model.DomainStatus, certAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[tenantID]
	if !ok || rec.Domain == nil {
		return false, nil
	}
	for _, s := range from {
		if rec.Status == s {
			rec.Status = to
			if to == model.DomainStatusLive {
				rec.CertificateIssuedAt = certAt
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) AppendCheckLog(_ context.Context, tenantID string, e directory.CheckEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[tenantID] = append(f.logs[tenantID], e)
	return nil
}

func (f *fakeDirectory) status(tenantID string) model.DomainStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs[tenantID].Status
}

type fakeDNS struct{ pointed bool }

func (f *fakeDNS) PointsAtPlatform(context.Context, string) bool { return f.pointed }

type fakeProber struct{ up bool }

func (f *fakeProber) Accessible(context.Context, string) bool { return f.up }

type fakeProvisioner struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{done: make(chan struct{}, 16)}
}

func (f *fakeProvisioner) Register(_ context.Context, domain string) error {
	f.mu.Lock()
	f.calls = append(f.calls, domain)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeProvisioner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProvisioner) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for provisioner dispatch")
	}
}

func TestCheckStatus_NoDomain(t *testing.T) {
	dir := newFakeDirectory()
	o := NewOrchestrator(dir, &fakeDNS{}, &fakeProber{}, nil, nil, nil)

	if _, err := o.CheckStatus(context.Background(), "t-1"); err != ErrNoDomain {
		t.Errorf("Expected ErrNoDomain, got %v", err)
	}
}

func TestCheckStatus_DNSNotPointed(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusPending)
	prov := newFakeProvisioner()
	o := NewOrchestrator(dir, &fakeDNS{pointed: false}, &fakeProber{}, prov, nil, nil)

	for i := 0; i < 3; i++ {
		res, err := o.CheckStatus(context.Background(), "t-1")
		if err != nil {
			t.Fatalf("CheckStatus() failed: %v", err)
		}
		if res.Status != model.DomainStatusVerifying {
			t.Errorf("Expected status verifying, got %s", res.Status)
		}
		if res.Verified {
			t.Error("Expected verified false while DNS is not pointed")
		}
	}

	if dir.status("t-1") != model.DomainStatusVerifying {
		t.Errorf("Expected stored status verifying, got %s", dir.status("t-1"))
	}
	if prov.count() != 0 {
		t.Errorf("Expected no provisioner dispatches, got %d", prov.count())
	}
}

func TestCheckStatus_DNSPointed_DispatchesOnce(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusVerifying)
	prov := newFakeProvisioner()
	o := NewOrchestrator(dir, &fakeDNS{pointed: true}, &fakeProber{up: false}, prov, nil, nil)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusSecuring {
		t.Errorf("Expected status securing, got %s", res.Status)
	}
	if !res.Verified {
		t.Error("Expected verified true once DNS is pointed")
	}

	prov.waitForCall(t)
	if prov.count() != 1 {
		t.Errorf("Expected exactly 1 dispatch for the transition, got %d", prov.count())
	}
	if dir.status("t-1") != model.DomainStatusSecuring {
		t.Errorf("Expected stored status securing, got %s", dir.status("t-1"))
	}
}

func TestCheckStatus_SecuringBecomesLive(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusSecuring)
	cache := newRecordingCache()
	o := NewOrchestrator(dir, &fakeDNS{pointed: true}, &fakeProber{up: true}, nil, nil, cache)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusLive {
		t.Errorf("Expected status live, got %s", res.Status)
	}
	if res.CertificateIssuedAt == nil {
		t.Error("Expected certificate issuance timestamp to be set")
	}
	if dir.status("t-1") != model.DomainStatusLive {
		t.Errorf("Expected stored status live, got %s", dir.status("t-1"))
	}
	if !cache.invalidated("shop.example.com") {
		t.Error("Expected resolution cache invalidation on going live")
	}
}

// staleReadDirectory serves one outdated securing snapshot before delegating,
// reproducing a status check racing a concurrent transition to live.
type staleReadDirectory struct {
	*fakeDirectory
	stale  model.TenantDomain
	served bool
}

func (d *staleReadDirectory) FindByTenant(ctx context.Context, tenantID string) (*model.TenantDomain, error) {
	if !d.served {
		d.served = true
		cp := d.stale
		return &cp, nil
	}
	return d.fakeDirectory.FindByTenant(ctx, tenantID)
}

func TestCheckStatus_SecuringLostRaceReportsStoredTimestamp(t *testing.T) {
	winnerAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	inner := newFakeDirectory()
	inner.add("t-1", "shop.example.com", model.DomainStatusLive)
	inner.recs["t-1"].CertificateIssuedAt = &winnerAt

	domain := "shop.example.com"
	dir := &staleReadDirectory{
		fakeDirectory: inner,
		stale:         model.TenantDomain{TenantID: "t-1", Domain: &domain, Status: model.DomainStatusSecuring},
	}
	o := NewOrchestrator(dir, &fakeDNS{pointed: true}, &fakeProber{up: true}, nil, nil, nil)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusLive {
		t.Errorf("Expected status live, got %s", res.Status)
	}
	if res.CertificateIssuedAt == nil || !res.CertificateIssuedAt.Equal(winnerAt) {
		t.Errorf("Expected the winner's stored timestamp %v, got %v", winnerAt, res.CertificateIssuedAt)
	}
}

func TestCheckStatus_SecuringStillWaiting_Redispatches(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusSecuring)
	prov := newFakeProvisioner()
	o := NewOrchestrator(dir, &fakeDNS{pointed: true}, &fakeProber{up: false}, prov, nil, nil)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusSecuring {
		t.Errorf("Expected status securing, got %s", res.Status)
	}
	prov.waitForCall(t)
}

func TestCheckStatus_LiveTransientProbeFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusLive)
	o := NewOrchestrator(dir, &fakeDNS{pointed: true}, &fakeProber{up: false}, nil, nil, nil)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusLive {
		t.Errorf("a failed probe with DNS still pointed must not demote, got %s", res.Status)
	}
	if dir.status("t-1") != model.DomainStatusLive {
		t.Errorf("Expected stored status live, got %s", dir.status("t-1"))
	}
}

func TestCheckStatus_LiveDNSMovedAway(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusLive)
	cache := newRecordingCache()
	o := NewOrchestrator(dir, &fakeDNS{pointed: false}, &fakeProber{up: false}, nil, nil, cache)

	res, err := o.CheckStatus(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusVerifying {
		t.Errorf("Expected demotion to verifying, got %s", res.Status)
	}
	if dir.status("t-1") != model.DomainStatusVerifying {
		t.Errorf("Expected stored status verifying, got %s", dir.status("t-1"))
	}
	if !cache.invalidated("shop.example.com") {
		t.Error("Expected resolution cache invalidation on demotion")
	}
}

func TestConfirmIssuedDomain(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusSecuring)
	o := NewOrchestrator(dir, &fakeDNS{}, &fakeProber{}, nil, nil, nil)

	changed, err := o.ConfirmIssuedDomain(context.Background(), "shop.example.com")
	if err != nil {
		t.Fatalf("ConfirmIssuedDomain() failed: %v", err)
	}
	if !changed {
		t.Error("Expected the callback to promote the domain")
	}
	if dir.status("t-1") != model.DomainStatusLive {
		t.Errorf("Expected stored status live, got %s", dir.status("t-1"))
	}

	// Replaying the callback is a no-op.
	changed, err = o.ConfirmIssuedDomain(context.Background(), "shop.example.com")
	if err != nil {
		t.Fatalf("ConfirmIssuedDomain() replay failed: %v", err)
	}
	if changed {
		t.Error("Expected replayed callback to change nothing")
	}
}

func TestConfirmIssuedDomain_UnknownDomain(t *testing.T) {
	dir := newFakeDirectory()
	o := NewOrchestrator(dir, &fakeDNS{}, &fakeProber{}, nil, nil, nil)

	changed, err := o.ConfirmIssuedDomain(context.Background(), "nobody.example.com")
	if err != nil {
		t.Fatalf("ConfirmIssuedDomain() failed: %v", err)
	}
	if changed {
		t.Error("unknown domains must not report a transition")
	}
}

// Walks a new domain through the full lifecycle the way a tenant polling the
// status endpoint would see it.
func TestLifecycle_EndToEnd(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("t-1", "shop.example.com", model.DomainStatusPending)
	dns := &fakeDNS{pointed: false}
	prober := &fakeProber{up: false}
	prov := newFakeProvisioner()
	o := NewOrchestrator(dir, dns, prober, prov, nil, nil)
	ctx := context.Background()

	// 1. DNS not set up yet.
	res, err := o.CheckStatus(ctx, "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusVerifying {
		t.Fatalf("step 1: Expected verifying, got %s", res.Status)
	}

	// 2. Tenant points the A record.
	dns.pointed = true
	res, err = o.CheckStatus(ctx, "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusSecuring {
		t.Fatalf("step 2: Expected securing, got %s", res.Status)
	}
	prov.waitForCall(t)

	// 3. Certificate lands, the domain starts answering HTTPS.
	prober.up = true
	res, err = o.CheckStatus(ctx, "t-1")
	if err != nil {
		t.Fatalf("CheckStatus() failed: %v", err)
	}
	if res.Status != model.DomainStatusLive {
		t.Fatalf("step 3: Expected live, got %s", res.Status)
	}
	if res.CertificateIssuedAt == nil {
		t.Error("step 3: Expected certificate issuance timestamp")
	}

	// Every check left a log entry behind.
	if len(dir.logs["t-1"]) != 3 {
		t.Errorf("Expected 3 check log entries, got %d", len(dir.logs["t-1"]))
	}
}

type recordingCache struct {
	mu          sync.Mutex
	invalidates []string
}

func newRecordingCache() *recordingCache { return &recordingCache{} }

func (c *recordingCache) Get(string) (string, bool, bool)   { return "", false, false }
func (c *recordingCache) Set(string, string, time.Duration) {}
func (c *recordingCache) SetNegative(string, time.Duration) {}

func (c *recordingCache) Invalidate(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidates = append(c.invalidates, domain)
}

func (c *recordingCache) invalidated(domain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.invalidates {
		if d == domain {
			return true
		}
	}
	return false
}

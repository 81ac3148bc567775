package provision

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"shopfront/internal/directory"
	"shopfront/internal/model"
	"shopfront/internal/resolvecache"
)

// ErrNoDomain is returned when a status check is requested for a tenant that
// has no custom domain configured.
var ErrNoDomain = errors.New("tenant has no custom domain configured")

const defaultDispatchTimeout = 2 * time.Minute

// Directory is the persistence surface the orchestrator drives. Transitions
// go through UpdateStatusFrom, a guarded write that only succeeds when the row
// is still in one of the expected source states; the returned bool tells the
// caller whether it won the transition.
type Directory interface {
	FindByTenant(ctx context.Context, tenantID string) (*model.TenantDomain, error)
	FindByDomain(ctx context.Context, domain string) (*model.TenantDomain, error)
	UpdateStatusFrom(ctx context.Context, tenantID string, from []model.DomainStatus, to model.DomainStatus, certAt *time.Time) (bool, error)
	AppendCheckLog(ctx context.Context, tenantID string, e directory.CheckEntry) error
}

// DNSChecker reports whether a domain's DNS points at the platform ingress.
type DNSChecker interface {
	PointsAtPlatform(ctx context.Context, domain string) bool
}

// LivenessProber reports whether a domain answers HTTPS traffic.
type LivenessProber interface {
	Accessible(ctx context.Context, domain string) bool
}

// StatusNotifier receives domain lifecycle transitions for realtime delivery.
type StatusNotifier interface {
	DomainStatusChanged(tenantID, domain string, status model.DomainStatus)
}

// StatusResult is the outcome of one status check, after any lifecycle
// transition it triggered has been applied.
type StatusResult struct {
	TenantID            string             `json:"tenantId"`
	Domain              string             `json:"domain"`
	Status              model.DomainStatus `json:"status"`
	Verified            bool               `json:"verified"`
	Message             string             `json:"message"`
	CertificateIssuedAt *time.Time         `json:"certificateIssuedAt,omitempty"`
}

// Orchestrator advances domains through the provisioning lifecycle. There is
// no background scheduler: every state inspection and every transition happens
// inside a status check, so a domain only moves when someone asks about it.
type Orchestrator struct {
	dir             Directory
	dns             DNSChecker
	prober          LivenessProber
	prov            Provisioner
	notifier        StatusNotifier
	cache           resolvecache.Cache
	logger          *logrus.Entry
	dispatchTimeout time.Duration
}

// NewOrchestrator wires the provisioning state machine. notifier and cache
// may be nil when realtime push or resolution caching is not in play.
func NewOrchestrator(dir Directory, dns DNSChecker, prober LivenessProber, prov Provisioner, notifier StatusNotifier, cache resolvecache.Cache) *Orchestrator {
	return &Orchestrator{
		dir:             dir,
		dns:             dns,
		prober:          prober,
		prov:            prov,
		notifier:        notifier,
		cache:           cache,
		logger:          logrus.WithField("component", "provision"),
		dispatchTimeout: defaultDispatchTimeout,
	}
}

// CheckStatus inspects the tenant's domain, runs the checks its current state
// calls for, applies at most one transition, and reports the resulting state.
func (o *Orchestrator) CheckStatus(ctx context.Context, tenantID string) (*StatusResult, error) {
	rec, err := o.dir.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Domain == nil {
		return nil, ErrNoDomain
	}
	domain := *rec.Domain

	var res *StatusResult
	switch rec.Status {
	case model.DomainStatusLive:
		res, err = o.checkLive(ctx, rec, domain)
	case model.DomainStatusSecuring:
		res, err = o.checkSecuring(ctx, rec, domain)
	default: // pending, verifying
		res, err = o.checkVerifying(ctx, rec, domain)
	}
	if err != nil {
		return nil, err
	}

	entry := directory.CheckEntry{
		At:      time.Now().UTC(),
		Status:  string(res.Status),
		Message: res.Message,
	}
	if logErr := o.dir.AppendCheckLog(ctx, tenantID, entry); logErr != nil {
		o.logger.WithError(logErr).Warnf("failed to append check log for %s", domain)
	}

	return res, nil
}

// checkVerifying handles pending and verifying domains: the only question is
// whether DNS points at the platform yet.
func (o *Orchestrator) checkVerifying(ctx context.Context, rec *model.TenantDomain, domain string) (*StatusResult, error) {
	if !o.dns.PointsAtPlatform(ctx, domain) {
		// A pending domain that has been checked at least once is
		// verifying; repeating the write is harmless.
		if rec.Status == model.DomainStatusPending {
			if _, err := o.dir.UpdateStatusFrom(ctx, rec.TenantID,
				[]model.DomainStatus{model.DomainStatusPending},
				model.DomainStatusVerifying, nil); err != nil {
				return nil, err
			}
		}
		return &StatusResult{
			TenantID: rec.TenantID,
			Domain:   domain,
			Status:   model.DomainStatusVerifying,
			Message:  "waiting for DNS to point at the platform",
		}, nil
	}

	// DNS is pointed. Whoever wins this guarded write owns the single
	// provisioner dispatch for this transition.
	won, err := o.dir.UpdateStatusFrom(ctx, rec.TenantID,
		[]model.DomainStatus{model.DomainStatusPending, model.DomainStatusVerifying},
		model.DomainStatusSecuring, nil)
	if err != nil {
		return nil, err
	}
	if won {
		o.dispatch(domain)
		o.notify(rec.TenantID, domain, model.DomainStatusSecuring)
	}

	return &StatusResult{
		TenantID: rec.TenantID,
		Domain:   domain,
		Status:   model.DomainStatusSecuring,
		Verified: true,
		Message:  "DNS verified, certificate provisioning in progress",
	}, nil
}

// checkSecuring watches for the certificate landing: once the domain answers
// HTTPS, it is live.
func (o *Orchestrator) checkSecuring(ctx context.Context, rec *model.TenantDomain, domain string) (*StatusResult, error) {
	if o.prober.Accessible(ctx, domain) {
		now := time.Now().UTC()
		won, err := o.dir.UpdateStatusFrom(ctx, rec.TenantID,
			[]model.DomainStatus{model.DomainStatusSecuring},
			model.DomainStatusLive, &now)
		if err != nil {
			return nil, err
		}
		issuedAt := &now
		if won {
			o.invalidate(domain)
			o.notify(rec.TenantID, domain, model.DomainStatusLive)
		} else {
			// A concurrent check committed the transition first; report the
			// timestamp it persisted, not ours.
			current, err := o.dir.FindByTenant(ctx, rec.TenantID)
			if err != nil {
				return nil, err
			}
			if current != nil {
				issuedAt = current.CertificateIssuedAt
			}
		}
		return &StatusResult{
			TenantID:            rec.TenantID,
			Domain:              domain,
			Status:              model.DomainStatusLive,
			Verified:            true,
			Message:             "domain is live",
			CertificateIssuedAt: issuedAt,
		}, nil
	}

	// Still waiting. Registration is idempotent remotely, so nudging the
	// provisioner again covers a lost earlier dispatch.
	o.dispatch(domain)
	return &StatusResult{
		TenantID: rec.TenantID,
		Domain:   domain,
		Status:   model.DomainStatusSecuring,
		Verified: true,
		Message:  "certificate provisioning in progress",
	}, nil
}

// checkLive re-validates a live domain. One failed probe is not enough to
// demote it; only DNS actually moving away from the platform does that.
func (o *Orchestrator) checkLive(ctx context.Context, rec *model.TenantDomain, domain string) (*StatusResult, error) {
	if o.prober.Accessible(ctx, domain) {
		return &StatusResult{
			TenantID:            rec.TenantID,
			Domain:              domain,
			Status:              model.DomainStatusLive,
			Verified:            true,
			Message:             "domain is live",
			CertificateIssuedAt: rec.CertificateIssuedAt,
		}, nil
	}

	if o.dns.PointsAtPlatform(ctx, domain) {
		// DNS is fine, the probe failure is transient. Stay live.
		return &StatusResult{
			TenantID:            rec.TenantID,
			Domain:              domain,
			Status:              model.DomainStatusLive,
			Verified:            true,
			Message:             "domain is live but temporarily unreachable",
			CertificateIssuedAt: rec.CertificateIssuedAt,
		}, nil
	}

	won, err := o.dir.UpdateStatusFrom(ctx, rec.TenantID,
		[]model.DomainStatus{model.DomainStatusLive},
		model.DomainStatusVerifying, nil)
	if err != nil {
		return nil, err
	}
	if won {
		o.invalidate(domain)
		o.notify(rec.TenantID, domain, model.DomainStatusVerifying)
	}

	return &StatusResult{
		TenantID: rec.TenantID,
		Domain:   domain,
		Status:   model.DomainStatusVerifying,
		Message:  "DNS no longer points at the platform",
	}, nil
}

// ConfirmIssuedDomain handles an issuance callback from the provisioner and
// promotes the matching securing domain to live. Returns whether a transition
// happened.
func (o *Orchestrator) ConfirmIssuedDomain(ctx context.Context, domain string) (bool, error) {
	rec, err := o.dir.FindByDomain(ctx, domain)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.Domain == nil {
		return false, nil
	}

	now := time.Now().UTC()
	won, err := o.dir.UpdateStatusFrom(ctx, rec.TenantID,
		[]model.DomainStatus{model.DomainStatusSecuring},
		model.DomainStatusLive, &now)
	if err != nil {
		return false, err
	}
	if won {
		o.invalidate(domain)
		o.notify(rec.TenantID, domain, model.DomainStatusLive)
		o.logger.Infof("certificate issued for %s, domain is live", domain)
	}
	return won, nil
}

// dispatch hands the domain to the provisioner without blocking the status
// check. Failures are logged; the securing state is re-inspected on every
// later check anyway.
func (o *Orchestrator) dispatch(domain string) {
	if o.prov == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.dispatchTimeout)
		defer cancel()
		if err := o.prov.Register(ctx, domain); err != nil {
			o.logger.WithError(err).Warnf("provisioner registration failed for %s", domain)
			return
		}
		o.logger.Infof("provisioner registration submitted for %s", domain)
	}()
}

func (o *Orchestrator) notify(tenantID, domain string, status model.DomainStatus) {
	if o.notifier != nil {
		o.notifier.DomainStatusChanged(tenantID, domain, status)
	}
}

func (o *Orchestrator) invalidate(domain string) {
	if o.cache != nil {
		o.cache.Invalidate(domain)
	}
}

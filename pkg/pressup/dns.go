package pressup

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

type RecordState string

const (
	RecordMatch     RecordState = "match"
	RecordMismatch  RecordState = "mismatch"
	RecordWrongType RecordState = "wrong-type"
	RecordMissing   RecordState = "missing"
	RecordUnknown   RecordState = "unknown"
)

// RecordCheck is the reconciliation state of one hostname. Created fresh per
// pass, resolved via live lookup and discarded after the report is emitted.
type RecordCheck struct {
	Hostname string
	Expected string
	State    RecordState
	Observed string
}

// Line renders the human-actionable report line for this hostname.
func (c RecordCheck) Line() string {
	switch c.State {
	case RecordMatch:
		return fmt.Sprintf("%s resolves to %s (ok)", c.Hostname, c.Observed)
	case RecordMismatch:
		return fmt.Sprintf("%s resolves to %s, expected %s: update record to CNAME %s -> %s",
			c.Hostname, c.Observed, c.Expected, c.Hostname, c.Expected)
	case RecordWrongType:
		return fmt.Sprintf("%s has A record %s, but a CNAME to %s is required", c.Hostname, c.Observed, c.Expected)
	case RecordMissing:
		return fmt.Sprintf("%s has no record, create: CNAME %s -> %s", c.Hostname, c.Hostname, c.Expected)
	default:
		return fmt.Sprintf("%s: could not determine DNS state", c.Hostname)
	}
}

// Resolver performs the live lookups; read-only, no pipeline-side mutation.
type Resolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupA(ctx context.Context, host string) ([]string, error)
}

// NetResolver resolves through the system resolver.
type NetResolver struct {
	resolver *net.Resolver
}

func NewNetResolver() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

func (r *NetResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	cname, err := r.resolver.LookupCNAME(ctx, host)
	if err != nil {
		return "", err
	}
	// the system resolver reports the host itself when no alias exists
	if strings.EqualFold(strings.TrimSuffix(cname, "."), strings.TrimSuffix(host, ".")) {
		return "", nil
	}
	return cname, nil
}

func (r *NetResolver) LookupA(ctx context.Context, host string) ([]string, error) {
	ips, err := r.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(ips))
	for _, ip := range ips {
		res = append(res, ip.IP.String())
	}
	return res, nil
}

// DNSReconciler compares the live DNS state of the deployment's hostnames
// against the expected endpoint target.
type DNSReconciler struct {
	resolver Resolver
	logger   util.Logger
}

func NewDNSReconciler(resolver Resolver, logger util.Logger) *DNSReconciler {
	return &DNSReconciler{resolver: resolver, logger: logger}
}

// Reconcile checks every hostname concurrently and independently through the
// run's parallel machinery: one hostname's lookup failure never blocks
// another's, and the report keeps the input order. Never fails the run;
// undeterminable hostnames (including those skipped by a cancelled run)
// degrade to an unknown status line.
func (r *DNSReconciler) Reconcile(ctx *types.DeployCtx, target string, hostnames []string) []RecordCheck {
	goCtx := ctx.GoContext()
	expected := strings.TrimSuffix(target, ".")
	checks := make([]RecordCheck, len(hostnames))
	for i, host := range hostnames {
		checks[i] = RecordCheck{Hostname: host, Expected: expected, State: RecordUnknown}
	}
	for i, host := range hostnames {
		i, host := i, host
		ctx.StartParallel(func() error {
			checks[i] = r.check(goCtx, host, target)
			return nil
		})
	}
	_ = ctx.WaitParallel()
	return checks
}

func (r *DNSReconciler) check(ctx context.Context, host string, target string) RecordCheck {
	res := RecordCheck{Hostname: host, Expected: strings.TrimSuffix(target, ".")}

	cname, cnameErr := r.resolver.LookupCNAME(ctx, host)
	cname = strings.TrimSuffix(cname, ".")
	if cnameErr == nil && cname != "" {
		res.Observed = cname
		if strings.EqualFold(cname, res.Expected) {
			res.State = RecordMatch
		} else {
			res.State = RecordMismatch
		}
		return res
	}

	addrs, aErr := r.resolver.LookupA(ctx, host)
	if aErr == nil && len(addrs) > 0 {
		res.State = RecordWrongType
		res.Observed = strings.Join(addrs, ", ")
		return res
	}

	if lookupFailed(cnameErr) || lookupFailed(aErr) {
		r.logger.Debugf("could not determine DNS state for %s: cname=%v a=%v", host, cnameErr, aErr)
		res.State = RecordUnknown
		return res
	}
	res.State = RecordMissing
	return res
}

// lookupFailed distinguishes a real lookup failure from an authoritative
// "no such record" answer.
func lookupFailed(err error) bool {
	if err == nil {
		return false
	}
	if dnsErr, ok := err.(*net.DNSError); ok && dnsErr.IsNotFound {
		return false
	}
	return true
}

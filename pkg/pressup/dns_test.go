package pressup

import (
	"net"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pressup/pressup/pkg/util"
)

func TestReconcileStates(t *testing.T) {
	RegisterTestingT(t)

	resolver := &fakeResolver{
		cnames: map[string]string{
			"site.example":     "d123.cdn.example.",
			"www.site.example": "other.cdn.example.",
		},
		addrs: map[string][]string{
			"legacy.example": {"10.1.2.3", "10.1.2.4"},
		},
		errs: map[string]error{
			"flaky.example": &net.DNSError{Err: "i/o timeout", Name: "flaky.example", IsTimeout: true},
		},
	}
	reconciler := NewDNSReconciler(resolver, &util.NoopLogger{})

	checks := reconciler.Reconcile(testDeployCtx(0), "d123.cdn.example", []string{
		"site.example", "www.site.example", "legacy.example", "missing.example", "flaky.example",
	})

	Expect(checks).To(HaveLen(5))

	Expect(checks[0].Hostname).To(Equal("site.example"))
	Expect(checks[0].State).To(Equal(RecordMatch))
	Expect(checks[0].Line()).To(Equal("site.example resolves to d123.cdn.example (ok)"))

	Expect(checks[1].State).To(Equal(RecordMismatch))
	Expect(checks[1].Line()).To(ContainSubstring("update record to CNAME www.site.example -> d123.cdn.example"))

	Expect(checks[2].State).To(Equal(RecordWrongType))
	Expect(checks[2].Observed).To(Equal("10.1.2.3, 10.1.2.4"))

	Expect(checks[3].State).To(Equal(RecordMissing))
	Expect(checks[3].Line()).To(Equal("missing.example has no record, create: CNAME missing.example -> d123.cdn.example"))

	Expect(checks[4].State).To(Equal(RecordUnknown))
	Expect(checks[4].Line()).To(Equal("flaky.example: could not determine DNS state"))
}

func TestReconcileMatchesCaseInsensitively(t *testing.T) {
	RegisterTestingT(t)

	resolver := &fakeResolver{
		cnames: map[string]string{"site.example": "D123.CDN.Example."},
	}
	reconciler := NewDNSReconciler(resolver, &util.NoopLogger{})

	checks := reconciler.Reconcile(testDeployCtx(0), "d123.cdn.example.", []string{"site.example"})

	Expect(checks[0].State).To(Equal(RecordMatch))
	Expect(checks[0].Expected).To(Equal("d123.cdn.example"))
}

func TestReconcileKeepsInputOrder(t *testing.T) {
	RegisterTestingT(t)

	resolver := &fakeResolver{cnames: map[string]string{}}
	reconciler := NewDNSReconciler(resolver, &util.NoopLogger{})
	hostnames := []string{"a.example", "b.example", "c.example"}

	checks := reconciler.Reconcile(testDeployCtx(2), "t.example", hostnames)

	for i, host := range hostnames {
		Expect(checks[i].Hostname).To(Equal(host))
		Expect(checks[i].State).To(Equal(RecordMissing))
	}
}

func TestReconcileDegradesToUnknownWhenCancelled(t *testing.T) {
	RegisterTestingT(t)

	resolver := &fakeResolver{cnames: map[string]string{"site.example": "t.example."}}
	reconciler := NewDNSReconciler(resolver, &util.NoopLogger{})
	ctx := testDeployCtx(0)
	ctx.Cancel("shutting down")

	checks := reconciler.Reconcile(ctx, "t.example", []string{"site.example"})

	Expect(checks).To(HaveLen(1))
	Expect(checks[0].Hostname).To(Equal("site.example"))
	Expect(checks[0].State).To(Equal(RecordUnknown))
}

package types

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pressup/pressup/pkg/util"
	"go.uber.org/atomic"
)

func TestDeployContextParallel(t *testing.T) {
	RegisterTestingT(t)

	ctx := NewDeployContext(&DeployCtx{ParallelCount: 2}, &util.NoopLogger{})
	counter := atomic.NewInt32(0)
	for i := 0; i < 5; i++ {
		ctx.StartParallel(func() error {
			counter.Inc()
			return nil
		})
	}

	Expect(ctx.WaitParallel()).To(BeNil())
	Expect(counter.Load()).To(Equal(int32(5)))
}

func TestDeployContextCancel(t *testing.T) {
	RegisterTestingT(t)

	ctx := NewDeployContext(nil, &util.NoopLogger{})
	Expect(ctx.IsCancelled()).To(BeFalse())

	ctx.Cancel("test reason %s", "now")

	Expect(ctx.IsCancelled()).To(BeTrue())
	Expect(ctx.GoContext().Err()).To(HaveOccurred())
}

func TestDeployContextFallbackLogger(t *testing.T) {
	RegisterTestingT(t)

	ctx := NewDeployContext(&DeployCtx{Verbose: true}, nil)

	_, ok := ctx.Logger().(*util.StdoutLogger)
	Expect(ok).To(BeTrue())
}

func TestDeployContextInheritsParent(t *testing.T) {
	RegisterTestingT(t)

	parent := NewDeployContext(&DeployCtx{Verbose: true, ParallelCount: 3}, &util.NoopLogger{})
	parent.SetVersion("1.2.3")
	child := NewDeployContext(parent, &util.NoopLogger{})

	Expect(child.Verbose).To(BeTrue())
	Expect(child.ParallelCount).To(Equal(3))
	Expect(child.Version()).To(Equal("1.2.3"))
	Expect(child.GoContext()).To(Equal(parent.GoContext()))
}

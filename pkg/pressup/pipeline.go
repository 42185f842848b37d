package pressup

import (
	"os"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

type Stage string

const (
	StageDetecting   Stage = "detecting"
	StageAssembling  Stage = "assembling"
	StagePreparing   Stage = "preparing"
	StageHandingOff  Stage = "handing-off"
	StageReconciling Stage = "reconciling"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Pipeline sequences the deployment stages and owns the failure/cleanup
// policy. It exclusively owns the staging directory for the run's duration;
// concurrent runs against the same staging path are undefined (one process
// per invocation by construction).
type Pipeline struct {
	ctx        *types.DeployCtx
	manifest   *types.DeploymentManifest
	installer  Installer
	executor   Executor
	reconciler *DNSReconciler
	cleanup    *CleanupStack
	stage      Stage
}

func NewPipeline(ctx *types.DeployCtx, manifest *types.DeploymentManifest) *Pipeline {
	logger := ctx.Logger()
	return &Pipeline{
		ctx:        ctx,
		manifest:   manifest,
		installer:  NewComposerInstaller(logger),
		executor:   NewUpExecutor(logger, ctx.Verbose),
		reconciler: NewDNSReconciler(NewNetResolver(), logger),
		cleanup:    NewCleanupStack(),
		stage:      StageDetecting,
	}
}

// WithInstaller overrides the dependency installer collaborator
func (p *Pipeline) WithInstaller(installer Installer) *Pipeline {
	p.installer = installer
	return p
}

// WithExecutor overrides the deployment executor collaborator
func (p *Pipeline) WithExecutor(executor Executor) *Pipeline {
	p.executor = executor
	return p
}

// WithResolver overrides the DNS resolver collaborator
func (p *Pipeline) WithResolver(resolver Resolver) *Pipeline {
	p.reconciler = NewDNSReconciler(resolver, p.ctx.Logger())
	return p
}

func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Run drives the pipeline to completion and returns the DNS reconciliation
// report. Reconciliation is advisory: the run reports done whether or not
// DNS is already configured correctly.
func (p *Pipeline) Run() ([]RecordCheck, error) {
	startedAt := time.Now()
	m := p.manifest
	logger := p.ctx.Logger()
	goCtx := p.ctx.GoContext()

	logger.Logf(" - Starting deployment of %s to environment %q (%s)...", m.Domain, m.EnvLabel, m.Region)

	p.stage = StageDetecting
	m.Layout = DetectLayout(m.SourceRoot)
	logger.Logf(" - Detected %s layout", m.Layout)

	p.stage = StageAssembling
	assembler := NewTreeAssembler(m, p.installer, p.cleanup, logger.SubLogger("assemble"))
	if err := assembler.Assemble(goCtx); err != nil {
		return nil, p.fail(err)
	}
	logger.Logf(" - Assembled staging tree at %s", m.StagingRoot)

	p.stage = StagePreparing
	if err := RunPreparationTasks(p.ctx, m, logger.SubLogger("prepare")); err != nil {
		return nil, p.fail(err)
	}
	if p.ctx.IsCancelled() {
		return nil, p.fail(errors.Errorf("deployment was cancelled"))
	}

	p.stage = StageHandingOff
	if err := ValidateEnvLabel(m.EnvLabel); err != nil {
		return nil, p.fail(err)
	}
	endpoint, err := p.executor.Deploy(goCtx, m)
	if err != nil {
		return nil, p.fail(err)
	}
	logger.Logf(" - Deployed to %s", endpoint.URL)

	p.stage = StageReconciling
	checks := p.reconciler.Reconcile(p.ctx, endpoint.Target, m.Hostnames())
	logger.Log(" - DNS reconciliation report:")
	for _, check := range checks {
		logger.Log("   " + check.Line())
	}

	p.stage = StageDone
	files, size := stagedTreeSummary(m.StagingRoot)
	logger.Logf(" - Staged %d files (%d bytes)", files, size)
	logger.Logf(" - Finished deployment in %s", util.FormatDuration(time.Since(startedAt)))
	return checks, nil
}

// fail moves the pipeline into its absorbing failure state: registered
// side-effect artifacts are removed in reverse order of creation and the
// staging directory is discarded (it is derived state, rebuilt on the next
// run). Cleanup never masks the original error.
func (p *Pipeline) fail(cause error) error {
	logger := p.ctx.Logger()
	err := errors.Wrapf(cause, "deployment failed while %s", p.stage)
	p.stage = StageFailed
	p.cleanup.Run(logger)
	if removeErr := util.RemoveDirectory(p.manifest.StagingRoot); removeErr != nil {
		logger.Errf("failed to remove staging dir %s: %s", p.manifest.StagingRoot, removeErr.Error())
	}
	return err
}

func stagedTreeSummary(stagingRoot string) (int, int64) {
	var files int
	var size int64
	_ = godirwalk.Walk(stagingRoot, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsRegular() {
				files++
				if info, err := os.Stat(osPathname); err == nil {
					size += info.Size()
				}
			}
			return nil
		},
		Unsorted: true,
	})
	return files, size
}

// Report renders the reconciliation report as one block of text.
func Report(checks []RecordCheck) string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		lines = append(lines, check.Line())
	}
	return strings.Join(lines, "\n")
}

package pressup

import (
	"net/http"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

func testPipeline(t *testing.T, m *types.DeploymentManifest) (*Pipeline, *fakeExecutor) {
	t.Helper()
	ctx := types.NewDeployContext(nil, &util.NoopLogger{})
	executor := &fakeExecutor{endpoint: Endpoint{URL: "https://d123.cdn.example", Target: "d123.cdn.example"}}
	resolver := &fakeResolver{cnames: map[string]string{"site.example": "d123.cdn.example."}}
	pipeline := NewPipeline(ctx, m).
		WithInstaller(&fakeInstaller{}).
		WithExecutor(executor).
		WithResolver(resolver)
	return pipeline, executor
}

func TestPipelineRunStandardLayout(t *testing.T) {
	RegisterTestingT(t)
	servePluginArchive(t, http.StatusOK)

	src := standardFixture(t)
	m := assembleManifest(src, filepath.Join(src, types.StateDirName, "stage"))
	m.RemovePlugins = []string{"akismet"}
	pipeline, executor := testPipeline(t, m)

	checks, err := pipeline.Run()

	Expect(err).To(BeNil())
	Expect(pipeline.Stage()).To(Equal(StageDone))
	Expect(executor.calls).To(Equal(1))

	Expect(checks).To(HaveLen(3))
	Expect(checks[0].Hostname).To(Equal("site.example"))
	Expect(checks[0].State).To(Equal(RecordMatch))
	Expect(checks[1].Hostname).To(Equal("www.site.example"))
	Expect(checks[2].Hostname).To(Equal("site.example"))

	staged := readFile(t, m.StagedConfigPath())
	Expect(staged).To(ContainSubstring("getenv('PRESSUP_DB_NAME') !== false ? getenv('PRESSUP_DB_NAME') : 'wp_prod'"))
	Expect(util.FileExists(m.HookFilePath())).To(BeTrue())
	Expect(util.FileExists(filepath.Join(m.StagedPluginsDir(), "s3-uploads", "readme.txt"))).To(BeTrue())
}

func TestPipelineRemovesStagingOnExecutorFailure(t *testing.T) {
	RegisterTestingT(t)
	servePluginArchive(t, http.StatusOK)

	src := standardFixture(t)
	m := assembleManifest(src, filepath.Join(src, types.StateDirName, "stage"))
	pipeline, executor := testPipeline(t, m)
	executor.fail = true

	_, err := pipeline.Run()

	Expect(err).To(HaveOccurred())
	Expect(err.Error()).To(ContainSubstring("deployment failed while handing-off"))
	Expect(pipeline.Stage()).To(Equal(StageFailed))
	Expect(util.DirExists(m.StagingRoot)).To(BeFalse())
}

func TestPipelineRejectsInvalidLabelBeforeHandoff(t *testing.T) {
	RegisterTestingT(t)
	servePluginArchive(t, http.StatusOK)

	src := standardFixture(t)
	m := assembleManifest(src, filepath.Join(src, types.StateDirName, "stage"))
	m.EnvLabel = "123"
	pipeline, executor := testPipeline(t, m)

	_, err := pipeline.Run()

	Expect(err).To(HaveOccurred())
	Expect(err.Error()).To(ContainSubstring("purely numeric"))
	Expect(executor.calls).To(Equal(0))
	Expect(util.DirExists(m.StagingRoot)).To(BeFalse())
}

func TestPipelineFailsDuringAssembly(t *testing.T) {
	RegisterTestingT(t)

	src := t.TempDir() // no config file at all
	m := assembleManifest(src, filepath.Join(t.TempDir(), "stage"))
	pipeline, executor := testPipeline(t, m)

	_, err := pipeline.Run()

	Expect(err).To(HaveOccurred())
	Expect(err.Error()).To(ContainSubstring("deployment failed while assembling"))
	Expect(executor.calls).To(Equal(0))
	Expect(util.DirExists(m.StagingRoot)).To(BeFalse())
}

func TestReport(t *testing.T) {
	RegisterTestingT(t)

	checks := []RecordCheck{
		{Hostname: "a.example", Expected: "t.example", State: RecordMatch, Observed: "t.example"},
		{Hostname: "b.example", Expected: "t.example", State: RecordMissing},
	}

	Expect(Report(checks)).To(Equal(
		"a.example resolves to t.example (ok)\n" +
			"b.example has no record, create: CNAME b.example -> t.example"))
}

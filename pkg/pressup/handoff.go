package pressup

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/exec"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

var (
	envLabelRe   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	digitsOnlyRe = regexp.MustCompile(`^[0-9]+$`)
	versionRe    = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)
)

// ValidateEnvLabel checks the target environment label before the executor is
// ever invoked: alphanumeric, not purely numeric and not the underscore.
func ValidateEnvLabel(label string) error {
	if label == "_" {
		return errors.Errorf("environment label must not be %q", "_")
	}
	if !envLabelRe.MatchString(label) {
		return errors.Errorf("environment label %q must match [A-Za-z0-9]+", label)
	}
	if digitsOnlyRe.MatchString(label) {
		return errors.Errorf("environment label %q must not be purely numeric", label)
	}
	return nil
}

// Endpoint describes where the deployed artifact is reachable. Target is the
// canonical hostname the DNS reconciler compares records against.
type Endpoint struct {
	URL    string
	Target string
}

// Executor submits the assembled staging tree for deployment.
type Executor interface {
	Deploy(ctx context.Context, m *types.DeploymentManifest) (Endpoint, error)
}

// UpExecutor drives the external deployment executor binary against the
// staging directory. Executor failures are surfaced verbatim; there is no
// automatic retry.
type UpExecutor struct {
	logger  util.Logger
	verbose bool
}

func NewUpExecutor(logger util.Logger, verbose bool) *UpExecutor {
	return &UpExecutor{logger: logger, verbose: verbose}
}

func (u *UpExecutor) Deploy(ctx context.Context, m *types.DeploymentManifest) (Endpoint, error) {
	if err := ValidateEnvLabel(m.EnvLabel); err != nil {
		return Endpoint{}, err
	}
	bin := m.Executor.Binary
	if bin == "" {
		bin = "up"
	}
	if _, err := exec.Lookup(bin); err != nil {
		return Endpoint{}, errors.Wrapf(err, "deployment executor %s is not installed", bin)
	}
	if err := u.checkExecutorVersion(ctx, bin, m.Executor.MinVersion); err != nil {
		return Endpoint{}, err
	}

	args := []string{bin, "deploy", m.EnvLabel}
	if u.verbose {
		args = append(args, "--verbose")
	}
	e := exec.NewExec(ctx, u.logger)
	opts := exec.Opts{Wd: m.StagingRoot, Env: []string{"AWS_REGION=" + m.Region}}
	if err := e.ExecCommandAndLog("deploy", shellquote.Join(args...), opts); err != nil {
		return Endpoint{}, errors.Wrapf(err, "deployment executor failed")
	}
	return u.resolveEndpoint(ctx, bin, m), nil
}

func (u *UpExecutor) checkExecutorVersion(ctx context.Context, bin string, minVersion string) error {
	if minVersion == "" {
		return nil
	}
	e := exec.NewExec(ctx, u.logger)
	out, err := e.ExecCommand(shellquote.Join(bin, "version"), exec.Opts{})
	if err != nil {
		return errors.Wrapf(err, "failed to determine %s version", bin)
	}
	current, min, err := ParseExecutorVersions(out, minVersion)
	if err != nil {
		return err
	}
	if current.LessThan(min) {
		return errors.Errorf("%s version %s is older than required %s", bin, current, min)
	}
	return nil
}

// ParseExecutorVersions extracts the executor's semantic version from its
// version output and parses the required minimum alongside it.
func ParseExecutorVersions(versionOutput string, minVersion string) (*semver.Version, *semver.Version, error) {
	raw := versionRe.FindString(versionOutput)
	if raw == "" {
		return nil, nil, errors.Errorf("could not find a version in executor output %q", strings.TrimSpace(versionOutput))
	}
	current, err := semver.NewVersion(raw)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse executor version %q", raw)
	}
	min, err := semver.NewVersion(minVersion)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse required version %q", minVersion)
	}
	return current, min, nil
}

// resolveEndpoint asks the executor for the deployed URL; when that probe
// fails the bucket website endpoint serves as the expected target, since
// reconciliation is advisory either way.
func (u *UpExecutor) resolveEndpoint(ctx context.Context, bin string, m *types.DeploymentManifest) Endpoint {
	e := exec.NewExec(ctx, u.logger)
	out, err := e.ExecCommand(shellquote.Join(bin, "url", m.EnvLabel), exec.Opts{Wd: m.StagingRoot})
	if err == nil {
		if ep, parseErr := ParseEndpointURL(out); parseErr == nil {
			return ep
		}
	}
	target := BucketWebsiteEndpoint(m.Bucket, m.Region)
	u.logger.Debugf("falling back to bucket website endpoint %s", target)
	return Endpoint{URL: "http://" + target, Target: target}
}

// ParseEndpointURL extracts the endpoint from the last non-empty line of the
// executor's url output.
func ParseEndpointURL(output string) (Endpoint, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	parsed, err := url.Parse(last)
	if err != nil || parsed.Host == "" {
		return Endpoint{}, errors.Errorf("could not parse endpoint from executor output %q", last)
	}
	return Endpoint{URL: last, Target: parsed.Host}, nil
}

// BucketWebsiteEndpoint returns the static website endpoint of a bucket.
func BucketWebsiteEndpoint(bucket string, region string) string {
	return fmt.Sprintf("%s.s3-website-%s.amazonaws.com", bucket, region)
}

package pressup

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

func testDeployCtx(parallel int) *types.DeployCtx {
	return types.NewDeployContext(&types.DeployCtx{ParallelCount: parallel}, &util.NoopLogger{})
}

const sampleConfig = `<?php
define('DB_NAME', 'wp_prod');
define('DB_USER', 'wp_user');
define('DB_PASSWORD', 'secret');
define('DB_HOST', 'localhost');

$table_prefix = 'wp_';

require_once ABSPATH . 'wp-settings.php';
`

const extendedConfig = `<?php
require_once __DIR__ . '/../vendor/autoload.php';

define('DB_NAME', 'wp_prod');
define('DB_USER', 'wp_user');
define('DB_PASSWORD', 'secret');
define('DB_HOST', 'localhost');

require_once ABSPATH . 'wp-settings.php';
`

func writeFile(t *testing.T, filePath string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		t.Fatalf("failed to create dir for %s: %v", filePath, err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", filePath, err)
	}
}

func readFile(t *testing.T, filePath string) string {
	t.Helper()
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filePath, err)
	}
	return string(content)
}

type fakeInstaller struct {
	calls []string
	fail  bool
}

func (f *fakeInstaller) Install(ctx context.Context, projectDir string) error {
	f.calls = append(f.calls, projectDir)
	if f.fail {
		return errors.Errorf("dependency installation failed")
	}
	vendorDir := filepath.Join(projectDir, types.AuxVendorDirName)
	if err := os.MkdirAll(vendorDir, os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(vendorDir, "autoload.php"), []byte("<?php\n"), 0o644)
}

type fakeExecutor struct {
	calls    int
	fail     bool
	endpoint Endpoint
}

func (f *fakeExecutor) Deploy(ctx context.Context, m *types.DeploymentManifest) (Endpoint, error) {
	f.calls++
	if f.fail {
		return Endpoint{}, errors.Errorf("executor rejected the deployment")
	}
	return f.endpoint, nil
}

// fakeResolver answers from static maps; hostnames absent from every map get
// an authoritative not-found answer.
type fakeResolver struct {
	cnames map[string]string
	addrs  map[string][]string
	errs   map[string]error
}

func (f *fakeResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	if err := f.errs[host]; err != nil {
		return "", err
	}
	return f.cnames[host], nil
}

func (f *fakeResolver) LookupA(ctx context.Context, host string) ([]string, error) {
	if err := f.errs[host]; err != nil {
		return nil, err
	}
	if addrs, ok := f.addrs[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

package pressup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
	"github.com/valyala/fasttemplate"
)

// PluginArchiveURL is the versioned archive of the bucket-uploads plugin
// bundled into every deployment.
var PluginArchiveURL = "https://github.com/humanmade/S3-Uploads/releases/download/v3.0.7/manual-install.zip"

// PreparationTask is one unit of independent work against the staged tree.
// Tasks operate on disjoint staged paths, so they run with no ordering
// guarantee relative to each other.
type PreparationTask struct {
	ID  string
	Run func(ctx context.Context) error
}

// PreparationTasks returns the fixed set of tasks for one run.
func PreparationTasks(m *types.DeploymentManifest, logger util.Logger) []PreparationTask {
	return []PreparationTask{
		{ID: "plugin-install", Run: func(ctx context.Context) error {
			return installPlugin(ctx, m, logger.SubLogger("plugin-install"))
		}},
		{ID: "plugin-remove", Run: func(ctx context.Context) error {
			return removePlugins(m, logger.SubLogger("plugin-remove"))
		}},
		{ID: "inject-hooks", Run: func(ctx context.Context) error {
			return injectHooks(m, logger.SubLogger("inject-hooks"))
		}},
	}
}

// RunPreparationTasks fans the preparation tasks out through the run's
// parallel machinery and joins on all of them: a failing task never stops its
// siblings, and the aggregated verdict is produced only after every task has
// finished. Cancellation of the run counts the in-flight tasks as failed.
func RunPreparationTasks(ctx *types.DeployCtx, m *types.DeploymentManifest, logger util.Logger) error {
	goCtx := ctx.GoContext()
	tasks := PreparationTasks(m, logger)
	results := make([]error, len(tasks))
	for i, task := range tasks {
		i, task := i, task
		ctx.StartParallel(func() error {
			if err := task.Run(goCtx); err != nil {
				logger.Errf("preparation task %s failed: %s", task.ID, err.Error())
				results[i] = err
			}
			return nil
		})
	}
	if err := ctx.WaitParallel(); err != nil {
		return errors.Wrapf(err, "preparation was interrupted")
	}
	var failed []string
	for i, err := range results {
		if err != nil {
			failed = append(failed, tasks[i].ID)
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("preparation failed for task(s): %s", strings.Join(failed, ", "))
	}
	return nil
}

// installPlugin fetches the plugin archive and extracts it into the staged
// plugins directory, removing the temporary archive afterwards.
func installPlugin(ctx context.Context, m *types.DeploymentManifest, logger util.Logger) error {
	pluginsDir := m.StagedPluginsDir()
	if err := os.MkdirAll(pluginsDir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create plugins dir %s", pluginsDir)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, PluginArchiveURL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build plugin request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch plugin archive from %s", PluginArchiveURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d fetching plugin archive from %s", resp.StatusCode, PluginArchiveURL)
	}

	tmpArchive := path.Join(pluginsDir, fmt.Sprintf(".pressup-%s.zip", uuid.New().String()))
	defer os.Remove(tmpArchive)
	out, err := os.Create(tmpArchive)
	if err != nil {
		return errors.Wrapf(err, "failed to create temp archive %s", tmpArchive)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "failed to download plugin archive")
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "failed to finish writing %s", tmpArchive)
	}
	logger.Debugf("downloaded plugin archive to %s", tmpArchive)
	if err := archiver.Unarchive(tmpArchive, pluginsDir); err != nil {
		return errors.Wrapf(err, "failed to extract plugin archive %s", tmpArchive)
	}
	logger.Logf("installed uploads plugin into %s", pluginsDir)
	return nil
}

// removePlugins deletes the named plugin directories from the staged tree;
// absence of a target is not an error.
func removePlugins(m *types.DeploymentManifest, logger util.Logger) error {
	pluginsDir := m.StagedPluginsDir()
	for _, name := range m.RemovePlugins {
		target := path.Join(pluginsDir, name)
		if _, err := os.Stat(target); os.IsNotExist(err) {
			logger.Debugf("plugin %s not present, skipping", name)
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			return errors.Wrapf(err, "failed to remove plugin %s", name)
		}
		logger.Logf("removed plugin %s", name)
	}
	return nil
}

// hookFragment is the must-use plugin written into the staged tree. It pins
// the canonical site URL to the target domain, suppresses canonical-redirect
// loops, and deletes cached bucket objects when content is saved.
const hookFragment = `<?php
/*
Plugin Name: Pressup Hooks
Description: Pins the canonical site URL and invalidates cached bucket objects on save.
*/

if (!defined('WP_HOME')) {
    define('WP_HOME', 'https://${domain}');
}
if (!defined('WP_SITEURL')) {
    define('WP_SITEURL', 'https://${domain}');
}

remove_filter('template_redirect', 'redirect_canonical');
add_filter('redirect_canonical', '__return_false');

add_action('save_post', function ($post_id) {
    if (wp_is_post_revision($post_id)) {
        return;
    }
    $paths = array(parse_url(get_permalink($post_id), PHP_URL_PATH));
    $manifest = ABSPATH . '${manifest}';
    if ('${manifest}' !== '' && file_exists($manifest)) {
        foreach (file($manifest, FILE_IGNORE_NEW_LINES | FILE_SKIP_EMPTY_LINES) as $path) {
            if (strpos($path, '/') === 0) {
                $paths[] = $path;
            }
        }
    }
    $client = new Aws\S3\S3Client(array('region' => '${region}', 'version' => 'latest'));
    foreach ($paths as $path) {
        $client->deleteObject(array('Bucket' => '${bucket}', 'Key' => ltrim($path, '/')));
        $client->deleteObject(array('Bucket' => '${bucket}', 'Key' => ltrim(rtrim($path, '/') . '/index.html', '/')));
    }
});
`

// injectHooks renders the hook fragment for the target deployment and writes
// it to the well-known must-use plugin path.
func injectHooks(m *types.DeploymentManifest, logger util.Logger) error {
	manifestName := ""
	if m.InvalidationList != "" {
		manifestName = filepath.Base(m.InvalidationList)
	}
	rendered := fasttemplate.ExecuteString(hookFragment, "${", "}", map[string]interface{}{
		"domain":   m.Domain,
		"bucket":   m.Bucket,
		"region":   m.Region,
		"manifest": manifestName,
	})
	hookPath := m.HookFilePath()
	if err := os.MkdirAll(filepath.Dir(hookPath), os.ModePerm); err != nil {
		return errors.Wrapf(err, "failed to create mu-plugins dir")
	}
	if err := os.WriteFile(hookPath, []byte(rendered), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write hook file %s", hookPath)
	}
	logger.Logf("injected hook file %s", hookPath)
	return nil
}

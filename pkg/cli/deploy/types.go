package deploy

import (
	"path/filepath"

	"github.com/alecthomas/kingpin"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/pressup/types"
	"github.com/pressup/pressup/pkg/util"
)

var appVersion string

type ActionFunction func() error

func registerAction(f ActionFunction) kingpin.Action {
	return func(ctx *kingpin.ParseContext) error {
		return f()
	}
}

type CommonParams struct {
	Verbose         bool
	PrintTimestamps bool
	Source          string
	Parallel        int
}

type DeployParams struct {
	Staging          string
	Domain           string
	Bucket           string
	LogBucket        string
	EnvName          string
	Region           string
	SkipUploads      bool
	RemovePlugins    []string
	InvalidationList string
	DBSSL            bool
	RequireDBHost    bool
	ExecutorBin      string
}

func (o *CommonParams) registerCommonFlags(cmd *kingpin.CmdClause) {
	cmd.Flag("verbose", "Print more detailed messages about process").
		Short('v').
		BoolVar(&o.Verbose)
	cmd.Flag("timestamps", "Prefix output with current date/time").
		Short('T').
		BoolVar(&o.PrintTimestamps)
	cmd.Flag("source", "Path to the CMS installation root").
		Short('s').
		Default(".").
		StringVar(&o.Source)
	cmd.Flag("parallel", "Maximum number of concurrently running tasks (0 for no limit)").
		Short('p').
		IntVar(&o.Parallel)
}

func (o *DeployParams) registerDeployFlags(cmd *kingpin.CmdClause) {
	cmd.Flag("staging", "Staging directory for the assembled deployment tree").
		StringVar(&o.Staging)
	cmd.Flag("domain", "Target domain of the deployed site").
		StringVar(&o.Domain)
	cmd.Flag("bucket", "Website bucket name").
		StringVar(&o.Bucket)
	cmd.Flag("log-bucket", "Logging bucket name").
		StringVar(&o.LogBucket)
	cmd.Flag("env", "Target environment label").
		Short('e').
		StringVar(&o.EnvName)
	cmd.Flag("region", "Target deployment region").
		StringVar(&o.Region)
	cmd.Flag("skip-uploads", "Do not bundle media uploads into the deployment").
		BoolVar(&o.SkipUploads)
	cmd.Flag("remove-plugin", "Plugin directory to remove from the staged tree (repeatable)").
		StringsVar(&o.RemovePlugins)
	cmd.Flag("invalidation-list", "Path to the cache invalidation list file").
		StringVar(&o.InvalidationList)
	cmd.Flag("db-ssl", "Require encrypted transport to the database").
		BoolVar(&o.DBSSL)
	cmd.Flag("require-db-host", "Fail when the config declares no database host").
		BoolVar(&o.RequireDBHost)
	cmd.Flag("executor", "Deployment executor binary").
		StringVar(&o.ExecutorBin)
}

// ToDeployCtx creates the deploy context for one CLI invocation
func (o *CommonParams) ToDeployCtx(name string) *types.DeployCtx {
	var logger util.Logger
	if o.PrintTimestamps {
		logger = util.NewTimestampPrefixLogger("["+name+"]", o.Verbose)
	} else {
		logger = util.NewPrefixLogger("["+name+"]", o.Verbose)
	}
	ctx := types.NewDeployContext(&types.DeployCtx{
		Verbose:         o.Verbose,
		PrintTimestamps: o.PrintTimestamps,
		ParallelCount:   o.Parallel,
	}, logger)
	ctx.SetVersion(appVersion)
	ctx.CancelOnSignal()
	return ctx
}

// BuildManifest merges the optional pressup.yaml with CLI flags (flags win)
// into the read-only manifest the pipeline runs on.
func (o *DeployParams) BuildManifest(common CommonParams) (*types.DeploymentManifest, error) {
	sourceRoot, err := filepath.Abs(common.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve source root %s", common.Source)
	}
	def, err := types.ReadProjectDefinition(sourceRoot)
	if err != nil {
		return nil, err
	}

	m := &types.DeploymentManifest{
		Domain:           firstNonEmpty(o.Domain, def.Domain),
		Bucket:           firstNonEmpty(o.Bucket, def.Bucket),
		LogBucket:        firstNonEmpty(o.LogBucket, def.LogBucket),
		SourceRoot:       sourceRoot,
		Region:           firstNonEmpty(o.Region, def.Region, "us-east-1"),
		EnvLabel:         firstNonEmpty(o.EnvName, def.Environment),
		BundleUploads:    !(o.SkipUploads || def.SkipUploads),
		RemovePlugins:    o.RemovePlugins,
		InvalidationList: firstNonEmpty(o.InvalidationList, def.InvalidationList),
		DBEncrypted:      o.DBSSL || def.Database.EncryptedTransport,
		DBHostRequired:   o.RequireDBHost || def.Database.HostRequired,
		Executor:         def.Executor,
	}
	if len(m.RemovePlugins) == 0 {
		m.RemovePlugins = def.RemovePlugins
	}
	if o.ExecutorBin != "" {
		m.Executor.Binary = o.ExecutorBin
	}

	staging := firstNonEmpty(o.Staging, def.Staging, filepath.Join(sourceRoot, types.StateDirName, "stage"))
	if m.StagingRoot, err = filepath.Abs(staging); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve staging dir %s", staging)
	}
	if m.Domain == "" {
		return nil, errors.Errorf("target domain is required (flag --domain or pressup.yaml)")
	}
	if m.Bucket == "" {
		m.Bucket = m.Domain
	}
	if m.EnvLabel == "" {
		return nil, errors.Errorf("environment label is required (flag --env or pressup.yaml)")
	}
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

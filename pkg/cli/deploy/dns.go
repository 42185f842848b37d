package deploy

import (
	"github.com/alecthomas/kingpin"
	"github.com/pkg/errors"
	"github.com/pressup/pressup/pkg/pressup"
	"github.com/pressup/pressup/pkg/pressup/types"
)

// DNS runs the reconciliation pass on its own, against an already
// deployed endpoint.
type DNS struct {
	CommonParams
	Domain string
	Bucket string
	Target string
}

func (o *DNS) Mount(a *kingpin.Application) *kingpin.CmdClause {
	cmd := a.Command("dns", "Check the DNS state of the deployed site against the expected endpoint")
	o.registerCommonFlags(cmd)
	cmd.Flag("domain", "Target domain of the deployed site").
		Required().
		StringVar(&o.Domain)
	cmd.Flag("bucket", "Website bucket name").
		StringVar(&o.Bucket)
	cmd.Flag("target", "Expected endpoint hostname").
		Required().
		StringVar(&o.Target)
	cmd.Action(registerAction(o.Check))
	appVersion = a.Model().Version

	return cmd
}

func (o *DNS) Check() error {
	if o.Bucket == "" {
		o.Bucket = o.Domain
	}
	manifest := &types.DeploymentManifest{Domain: o.Domain, Bucket: o.Bucket}
	ctx := o.ToDeployCtx("pressup")
	reconciler := pressup.NewDNSReconciler(pressup.NewNetResolver(), ctx.Logger())
	checks := reconciler.Reconcile(ctx, o.Target, manifest.Hostnames())
	for _, check := range checks {
		ctx.Logger().Log(" - " + check.Line())
	}
	if len(checks) == 0 {
		return errors.Errorf("nothing to reconcile")
	}
	return nil
}

package deploy

import (
	"github.com/alecthomas/kingpin"
	"github.com/pressup/pressup/pkg/pressup"
)

type Deploy struct {
	CommonParams
	DeployParams
}

func (o *Deploy) Mount(a *kingpin.Application) *kingpin.CmdClause {
	cmd := a.Command("deploy", "Assemble the installation into a staging tree, deploy it and reconcile DNS")
	o.registerCommonFlags(cmd)
	o.registerDeployFlags(cmd)
	cmd.Action(registerAction(o.Deploy))
	appVersion = a.Model().Version

	return cmd
}

func (o *Deploy) Deploy() error {
	manifest, err := o.BuildManifest(o.CommonParams)
	if err != nil {
		return err
	}
	ctx := o.ToDeployCtx("pressup")
	pipeline := pressup.NewPipeline(ctx, manifest)
	_, err = pipeline.Run()
	return err
}

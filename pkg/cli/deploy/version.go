package deploy

import (
	"fmt"

	"github.com/alecthomas/kingpin"
)

type Version struct {
}

func (o *Version) Mount(a *kingpin.Application) *kingpin.CmdClause {
	cmd := a.Command("version", "Print version of the tool")
	cmd.Action(registerAction(o.Print))
	appVersion = a.Model().Version

	return cmd
}

func (o *Version) Print() error {
	fmt.Println(appVersion)
	return nil
}

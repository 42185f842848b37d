package main

import (
	"os"

	"github.com/alecthomas/kingpin"
	"github.com/pressup/pressup/pkg/cli/deploy"
)

// Version is set during build (see Makefile).
var Version string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := kingpin.New("pressup", "Pressup packages a WordPress installation into a serverless deployment and reconciles its DNS state").Version(Version)

	(&deploy.Deploy{}).Mount(app)
	(&deploy.DNS{}).Mount(app)
	(&deploy.Version{}).Mount(app)

	kingpin.MustParse(app.Parse(args[1:]))
	return 0
}

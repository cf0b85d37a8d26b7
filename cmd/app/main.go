// entry point to app :)
package main

import (
	"os"

	"github.com/ds124wfegd/eshikshan/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	if err := cli.NewRootCommand().Execute(); err != nil {
		logrus.Errorf("eshikshan: %s", err.Error())
		os.Exit(1)
	}
}

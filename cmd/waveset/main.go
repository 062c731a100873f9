package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/waveset/configuration"
	"github.com/fulldump/waveset/logger"
	"github.com/fulldump/waveset/service"
)

var VERSION = "dev"

func main() {

	c := configuration.Default()
	goconfig.Read(c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	l := logger.New(c)
	l.Info("starting waveset",
		"version", VERSION,
		"seed", c.Seed,
		"train", c.Train,
		"test", c.Test,
		"project", c.Project,
	)

	_, err := service.NewService(c, l).Run()
	if err != nil {
		l.Error("run failed", "error", err)
		os.Exit(1)
	}
}

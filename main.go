package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/vidpress/crawler/configs"
)

func main() {
	var (
		envFile string
		port    string
	)
	flag.StringVar(&envFile, "env", "keys.env", "path to the credentials env file")
	flag.StringVar(&port, "port", "", "listen address, overrides PORT from the environment")
	flag.Parse()

	cfg, err := configs.Load(envFile)
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if port == "" {
		port = cfg.Port
	}

	crawlerService := NewCrawlerService(cfg)

	appServer := NewAppServer(crawlerService)
	if err := appServer.Start(port); err != nil {
		logrus.Fatalf("failed to run server: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/space-wizards/space-station-14-sub095/floodfill"
	"github.com/space-wizards/space-station-14-sub095/grid"
	"github.com/space-wizards/space-station-14-sub095/logger"
	"github.com/space-wizards/space-station-14-sub095/preview"
	"github.com/space-wizards/space-station-14-sub095/scenario"
	"github.com/space-wizards/space-station-14-sub095/status"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		scenarioPath = flag.String("scenario", "", "TOML scenario whose grids floods run against; open space when empty")
		ringDelay    = flag.Duration("ring-delay", 0, "pause between streamed rings")
		maxClients   = flag.Int("max-clients", 64, "concurrent websocket sessions")
	)
	flag.Parse()

	logger.Init()
	log := logger.Component("flood-server")

	grids := grid.NewSet()
	if *scenarioPath != "" {
		scn, err := scenario.Load(*scenarioPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load scenario")
		}
		grids = scn.Set()
		log.WithFields(logrus.Fields{
			"scenario":  scn.Name,
			"grids":     grids.Len(),
			"epicenter": scn.Params().Epicenter.String(),
		}).Info("Scenario loaded")
	}

	reg := status.NewRegistry()
	sys := floodfill.NewSystem(grids, logger.Component("floodfill"), reg)

	cfg := preview.DefaultConfig()
	cfg.Address = *addr
	cfg.RingDelay = *ringDelay
	cfg.MaxClients = *maxClients

	srv := preview.NewServer(cfg, sys, logger.Component("preview"), reg)
	if err := srv.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start preview server")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.WithError(err).Warn("Shutdown incomplete")
	}
	log.Info("Stopped")
}

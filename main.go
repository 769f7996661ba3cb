package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"weather-dashboard/api"
	"weather-dashboard/collector"
	"weather-dashboard/config"
	"weather-dashboard/dashboard"
)

// reports older than this are dropped from the store
const reportPruneAge = 48 * time.Hour

func main() {
	configFile := flag.String("config", "", "Path to an optional JSON configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := cfg.NewLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	service := dashboard.NewFromConfig(cfg, log)
	log.WithFields(logrus.Fields{
		"provider": service.Name(),
		"cities":   cfg.Cities,
		"interval": cfg.RefreshInterval,
	}).Info("Weather dashboard configured")
	th := service.Thresholds()
	log.WithFields(logrus.Fields{
		"maxTemp":    th.MaxTemp,
		"minTemp":    th.MinTemp,
		"severeWind": th.SevereWind,
	}).Info("Alert thresholds")

	store := api.NewReportStore()
	coll := collector.NewCollector(service, cfg.Cities, cfg.RefreshInterval)
	coll.SetFetchTimeout(cfg.RefreshTimeout())
	stop := coll.Start(ctx)

	go consumeReports(coll, store, log)
	go prune(ctx, store, service, log)

	srv := api.NewServer(cfg.ListenAddr(), service, store, coll, log)
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
		stop()
		os.Exit(1)
	}

	stop()
	log.Info("Shutdown complete")
}

// consumeReports stores every refreshed report until the collector stops
func consumeReports(coll *collector.Collector, store *api.ReportStore, log logrus.FieldLogger) {
	reports := coll.OutputChannel()
	errs := coll.ErrorChannel()

	for reports != nil || errs != nil {
		select {
		case report, ok := <-reports:
			if !ok {
				reports = nil
				continue
			}
			store.Update(report)
			log.WithFields(logrus.Fields{
				"city":     report.City,
				"alerts":   len(report.Alerts),
				"warnings": len(report.Warnings),
			}).Info("Updated weather report")
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WithError(err).Warn("Refresh failed")
		}
	}
}

// prune drops stale reports and expired geocode entries once a day
func prune(ctx context.Context, store *api.ReportStore, service *dashboard.Service, log logrus.FieldLogger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := store.PruneOlderThan(reportPruneAge); n > 0 {
				log.WithField("pruned", n).Info("Pruned stale reports")
			}
			if n := service.PurgeGeocodeCache(); n > 0 {
				log.WithField("purged", n).Debug("Purged expired geocode entries")
			}
		case <-ctx.Done():
			return
		}
	}
}

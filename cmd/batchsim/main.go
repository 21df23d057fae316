package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "github.com/lib/pq"

	"github.com/eaglepoint/batchsim/internal/config"
	"github.com/eaglepoint/batchsim/internal/logging"
	"github.com/eaglepoint/batchsim/pkg/auditstore"
	"github.com/eaglepoint/batchsim/pkg/chemistry"
	"github.com/eaglepoint/batchsim/pkg/eventbus"
	"github.com/eaglepoint/batchsim/pkg/model"
	"github.com/eaglepoint/batchsim/pkg/taskgraph"
)

func main() {
	log := logging.New("batchsim")
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("opening audit database: %v", err)
	}
	defer db.Close()

	audit := auditstore.New(db)
	if err := audit.InitSchema(); err != nil {
		log.Fatalf("initializing audit schema: %v", err)
	}

	bus, err := eventbus.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("connecting to event bus: %v", err)
	}
	defer bus.Close()

	catalog := chemistry.NewMaterialCatalog()
	if cfg.MaterialsFile != "" {
		f, err := os.Open(cfg.MaterialsFile)
		if err != nil {
			log.Fatalf("opening materials file: %v", err)
		}
		if err := catalog.LoadCSV(f); err != nil {
			f.Close()
			log.Fatalf("loading materials file: %v", err)
		}
		f.Close()
	}

	graph, roots := demoBatchGraph()

	m := model.NewModel(cfg, graph, roots, catalog,
		model.WithLogger(log),
		model.WithEventBus(bus),
		model.WithAuditStore(audit),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		log.Printf("serving metrics on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server failed: %v", err)
		}
	}()

	runDone := make(chan error, 1)
	go func() {
		if err := m.Validate(); err != nil {
			runDone <- err
			return
		}
		bus.PublishExecutiveStarted(eventbus.RunEvent{AtSec: 0})
		err := m.Start()
		bus.PublishExecutiveFinished(eventbus.RunEvent{AtSec: float64(m.Executive.Now())})
		runDone <- err
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-runDone:
		if err != nil {
			log.Printf("run ended with error: %v", err)
		} else {
			log.Printf("run finished")
		}
	case <-quit:
		log.Printf("received shutdown signal, stopping executive")
		m.Executive.Stop()
		<-runDone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("metrics server forced to shutdown: %v", err)
	}
	log.Printf("shutdown complete")
}

// demoBatchGraph builds the charge/heat/discharge task chain used when
// no external plant configuration has been wired in yet; a future
// config-driven graph builder replaces this with one assembled from
// cfg.MaterialsFile's companion plant-topology file.
func demoBatchGraph() (*taskgraph.Graph, []*taskgraph.Task) {
	g := taskgraph.NewGraph()
	charge := taskgraph.NewTask("charge")
	heat := taskgraph.NewTask("heat")
	discharge := taskgraph.NewTask("discharge")

	g.Register(charge)
	g.Register(heat)
	g.Register(discharge)
	g.Connect(charge, heat)
	g.Connect(heat, discharge)

	charge.Execute = func() error { return nil }
	heat.Execute = func() error { return nil }
	discharge.Execute = func() error { return nil }

	return g, []*taskgraph.Task{charge}
}

// cmd/server is the main entry point for one branch node.
//
// Configuration is entirely via flags so a single binary can serve any
// branch in the cluster — the coordination TCP address comes from the
// topology file (or the five-branch built-in default if none is given),
// and the admin HTTP address from --admin-addr.
//
// Example — a single branch using the built-in five-branch topology:
//
//	./server --id 5 --data-dir /var/godkv/branch5
//
// Example — a custom topology shared by every branch's process:
//
//	./server --id 1 --topology ./branches.yaml --data-dir /var/godkv/branch1
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nomadgto/dist-syst/internal/api"
	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/node"
)

func main() {
	selfID := flag.Int("id", 1, "this branch's numeric id")
	topologyPath := flag.String("topology", "", "path to a YAML topology file (built-in 5-branch topology if empty)")
	dataDir := flag.String("data-dir", "/tmp/godkv", "directory for this branch's WAL and snapshots")
	adminAddr := flag.String("admin-addr", ":9001", "listen address for the read-only admin HTTP surface")
	interactive := flag.Bool("interactive", false, "drive the branch from the interactive menu instead of just serving")
	flag.Parse()

	log := logrus.New().WithField("branch_id", *selfID)

	registry, err := membership.LoadTopology(*topologyPath, *selfID)
	if err != nil {
		log.WithError(err).Fatal("server: load topology")
	}

	sup, err := node.New(registry, *dataDir, log)
	if err != nil {
		log.WithError(err).Fatal("server: build supervisor")
	}

	gin.SetMode(gin.ReleaseMode)
	ginEngine := gin.New()
	ginEngine.Use(api.Logger(log), api.Recovery(log))
	api.NewHandler(sup.Store, sup.Registry).Register(ginEngine)

	adminSrv := &http.Server{
		Addr:         *adminAddr,
		Handler:      ginEngine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server: admin HTTP server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	supErr := make(chan error, 1)
	go func() { supErr <- sup.Run(ctx) }()

	if *interactive {
		ui := node.NewUI(sup, os.Stdin, os.Stdout)
		go ui.Run()
	}

	go node.WaitForSignal(cancel)

	if err := <-supErr; err != nil {
		log.WithError(err).Fatal("server: supervisor exited with error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server: admin HTTP shutdown error")
	}

	fmt.Println("branch", *selfID, "stopped")
}

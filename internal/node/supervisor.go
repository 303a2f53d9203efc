// Package node wires every subsystem together into one running branch
// process: the TCP listener, the membership registry, the local store,
// the master-mutex, the quorum coordinator/participant and the failover
// controller. It also holds the interactive menu (UI); cmd/server mounts
// the admin HTTP surface and starts the UI alongside the Supervisor.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nomadgto/dist-syst/internal/failover"
	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/mutex"
	"github.com/nomadgto/dist-syst/internal/quorum"
	"github.com/nomadgto/dist-syst/internal/router"
	"github.com/nomadgto/dist-syst/internal/store"
	"github.com/nomadgto/dist-syst/internal/transport"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// SnapshotInterval is how often the Supervisor takes a background
// snapshot of the store, truncating the WAL.
const SnapshotInterval = 60 * time.Second

// AcquireRetryBackoff bounds how long Apply waits between a failed
// permission request and retrying once failover has run.
const AcquireRetryBackoff = 200 * time.Millisecond

// Supervisor owns one branch node's full runtime: every subsystem plus
// the goroutines that drive them.
type Supervisor struct {
	Registry    *membership.Registry
	Store       *store.Store
	Log         *logrus.Entry
	Lock        *mutex.MasterLock
	Coordinator *quorum.Coordinator
	Participant *quorum.Participant
	Failover    *failover.Controller
	Router      *router.Router

	transportSrv *transport.Server
}

// New builds a Supervisor bound to registry and a store rooted at
// dataDir. It does not start listening — call Run for that.
func New(registry *membership.Registry, dataDir string, log *logrus.Entry) (*Supervisor, error) {
	st, err := store.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("node: open store: %w", err)
	}

	lock := mutex.NewMasterLock()
	coordinator := quorum.NewCoordinator(registry, st, log)
	participant := quorum.NewParticipant(registry, st, log)
	failoverCtl := failover.NewController(registry, log)
	rt := router.New(registry, lock, coordinator, participant, failoverCtl, log)

	return &Supervisor{
		Registry:    registry,
		Store:       st,
		Log:         log,
		Lock:        lock,
		Coordinator: coordinator,
		Participant: participant,
		Failover:    failoverCtl,
		Router:      rt,
	}, nil
}

// Run binds the TCP listener on self's address and blocks, serving
// inbound connections and taking periodic snapshots, until ctx is
// cancelled or a listener error occurs.
func (s *Supervisor) Run(ctx context.Context) error {
	srv, err := transport.Listen(s.Registry.SelfIP(), s.Log)
	if err != nil {
		return fmt.Errorf("node: listen on %s: %w", s.Registry.SelfIP(), err)
	}
	s.transportSrv = srv

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(s.Router.Handle) }()

	ticker := time.NewTicker(SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case err := <-serveErr:
			return err
		case <-ticker.C:
			if err := s.Store.Snapshot(); err != nil {
				s.Log.WithError(err).Warn("node: periodic snapshot failed")
			}
		}
	}
}

func (s *Supervisor) shutdown() {
	s.Log.Info("node: shutting down")
	if err := s.Store.Snapshot(); err != nil {
		s.Log.WithError(err).Warn("node: final snapshot failed")
	}
	if s.transportSrv != nil {
		_ = s.transportSrv.Close()
	}
	_ = s.Store.Close()
}

// WaitForSignal blocks until SIGINT, SIGTERM, or SIGTSTP arrives, then
// cancels ctx — mirroring the two Ctrl+C / Ctrl+Z exit handlers the
// source installed, as a single Go signal channel instead of two
// separate handlers for the same outcome.
func WaitForSignal(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP)
	<-sig
	cancel()
}

// Apply runs one mutation end to end: acquire the cluster write lock
// (self-granting if this node is master, over the wire otherwise,
// self-promoting on a dead master and retrying), run the quorum round,
// and release the lock.
func (s *Supervisor) Apply(op wire.Op) error {
	if err := s.acquireWriteLock(); err != nil {
		return err
	}
	defer s.releaseWriteLock()

	return s.Coordinator.Run(op)
}

// acquireWriteLock mirrors the source's acquire_permission: recurse
// into self-promotion on ConnectionRefused/NoRouteToHost and retry,
// which always terminates because the retry, after promotion, targets
// this node itself.
func (s *Supervisor) acquireWriteLock() error {
	for {
		if s.Registry.IsMasterSelf() {
			ctx, cancel := context.WithTimeout(context.Background(), router.AcquireTimeout)
			defer cancel()
			return s.Lock.Acquire(ctx)
		}

		masterID, masterAddr := s.Registry.MasterID(), s.Registry.MasterIP()
		err := mutex.RequestPermission(masterAddr)
		if err == nil {
			return nil
		}

		var te *wire.TransportError
		if !errors.As(err, &te) || (te.Kind != wire.ConnectionRefused && te.Kind != wire.NoRouteToHost) {
			return err
		}

		s.Log.WithField("dead_master", masterID).Warn("node: master unreachable, self-promoting")
		s.Failover.Promote(masterID)
		time.Sleep(AcquireRetryBackoff)
	}
}

func (s *Supervisor) releaseWriteLock() {
	if s.Registry.IsMasterSelf() {
		s.Lock.Release()
		return
	}
	if err := mutex.ReleasePermission(s.Registry.MasterIP()); err != nil {
		s.Log.WithError(err).Warn("node: release_permission failed")
	}
}

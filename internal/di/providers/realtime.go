package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/postgres"
	"github.com/galeriaarte/galeria-server/internal/realtime"
	"github.com/galeriaarte/galeria-server/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	manager := sse.NewManager(log, m)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// HubHandle wraps the realtime hub and the change feed feeding it.
type HubHandle struct {
	*realtime.Hub
	forward *realtime.Subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	h.forward.Unsubscribe()
	h.cancel()
	<-h.done
	return nil
}

// ProvideHub provides the realtime hub. Every change is forwarded to the
// SSE manager; the Postgres change feed runs when realtime is enabled.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	hub := realtime.NewHub(log.Component("realtime"))
	forward := hub.Subscribe(realtime.AllTables, sseHandle.Forward)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	if !cfg.Realtime.Enabled {
		close(done)
		log.Info("Realtime change feed disabled by configuration")
		return &HubHandle{Hub: hub, forward: forward, cancel: cancel, done: done}, nil
	}

	pool := do.MustInvoke[*PoolHandle](i)
	listener := postgres.NewListener(pool.Pool, log.Component("listener"))
	go func() {
		defer close(done)
		if err := hub.Run(ctx, listener); err != nil {
			log.Error("Realtime change feed stopped", "error", err)
		}
	}()

	log.Info("Realtime change feed started", "channel", postgres.ChangeChannel)

	return &HubHandle{Hub: hub, forward: forward, cancel: cancel, done: done}, nil
}

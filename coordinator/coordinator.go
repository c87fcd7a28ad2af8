// Package coordinator drives placer's event loop: it owns the consumer
// keyring and the target table, supervises one fetcher per configured
// source, and routes each decrypted pack's files to disk.
package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"placer.io/config"
	"placer.io/keyrings"
	"placer.io/pack"
	"placer.io/perrors"
	"placer.io/plog"
	"placer.io/source"
	"placer.io/target"
)

// State is one of the coordinator's lifecycle states.
type State int

const (
	Configuring State = iota
	Running
	Draining
	Exited
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Coordinator is the top-level object: the immutable keyring and target
// table, plus one supervisor per configured source.
type Coordinator struct {
	stateMu sync.Mutex
	state   State

	keyrings      *keyrings.ConsumerKeyrings
	targets       *target.Table
	sources       map[string]*source.Supervisor
	quarantineDir string
}

func (c *Coordinator) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// New loads the keyring and target table named by cfg, canonicalizes the
// running executable's own path, and spawns one supervisor per configured
// source, issuing each one's resource request. Any failure here is a
// Configuring-state error and is fatal to the whole process.
func New(cfg *config.Config) (*Coordinator, error) {
	const op = "coordinator.New"

	kr, err := keyrings.LoadConsumer(cfg.Keyrings)
	if err != nil {
		return nil, perrors.E(op, err)
	}

	targets, err := target.NewTable(cfg.Files)
	if err != nil {
		return nil, perrors.E(op, err)
	}

	executable, err := canonicalExecutablePath()
	if err != nil {
		return nil, perrors.E(op, perrors.Config, err)
	}

	sources := make(map[string]*source.Supervisor, len(cfg.Sources))
	for _, name := range sortedKeys(cfg.Sources) {
		sup, err := source.New(name, cfg.Sources[name], executable)
		if err != nil {
			for _, started := range sources {
				_ = started.Close()
			}
			return nil, perrors.E(op, name, err)
		}
		plog.Info.Printf("%s", sup.Greet())
		for label, resource := range cfg.Sources[name].Packs {
			plog.Info.Printf("[source:%s] requested %q pack: %s", name, label, resource)
		}
		sources[name] = sup
	}

	return &Coordinator{
		state:         Configuring,
		keyrings:      kr,
		targets:       targets,
		sources:       sources,
		quarantineDir: cfg.Quarantine.Path,
	}, nil
}

type taggedDelivery struct {
	source   string
	delivery source.Delivery
}

// Run enters the Running state and drives the event loop until ctx is
// canceled or a source supervisor returns a fatal protocol error, in
// which case every other source is canceled too and that error is
// returned (spec: fetcher supervisor errors are currently fatal).
func (c *Coordinator) Run(ctx context.Context) error {
	c.setState(Running)

	g, gctx := errgroup.WithContext(ctx)
	deliveries := make(chan taggedDelivery)

	// sup.NextFile blocks in an uninterruptible pipe read, so canceling
	// gctx alone never wakes it up. Killing every fetcher on cancellation
	// forces those reads to fail, which is what actually lets the
	// per-source goroutines below return and g.Wait unblock.
	g.Go(func() error {
		<-gctx.Done()
		c.Close()
		return nil
	})

	for name, sup := range c.sources {
		name, sup := name, sup
		g.Go(func() error {
			for {
				d, err := sup.NextFile()
				if err != nil {
					return perrors.E("coordinator.Run", name, perrors.Source, err)
				}
				select {
				case deliveries <- taggedDelivery{source: name, delivery: d}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(deliveries)
	}()

	for d := range deliveries {
		c.process(d)
	}

	c.setState(Exited)
	err := <-done
	if ctx.Err() != nil {
		// The caller asked us to stop (e.g. SIGINT/SIGTERM canceled ctx);
		// killing the fetchers to unblock their reads surfaces as pipe
		// errors from the per-source goroutines, but that's expected
		// teardown noise, not a fatal protocol violation.
		return nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Coordinator) process(d taggedDelivery) {
	p, err := pack.VerifyAndDecrypt(d.delivery.Body, c.keyrings.Lookup)
	if err != nil {
		plog.Error.Printf("[source:%s] bad pack %q: %v", d.source, d.delivery.PackLabel, err)
		return
	}

	plog.Info.Printf("[source:%s] fetched %q pack (%d bytes)", d.source, d.delivery.PackLabel, len(d.delivery.Body))

	for _, f := range p.Files {
		c.targets.Route(d.delivery.PackLabel, p.UUID.String(), c.quarantineDir, f)
	}
}

// Close terminates every source supervisor's fetcher subprocess.
func (c *Coordinator) Close() {
	c.setState(Draining)
	for _, sup := range c.sources {
		_ = sup.Close()
	}
}

func canonicalExecutablePath() (string, error) {
	nonCanonical, err := os.Executable()
	if err != nil {
		return "", perrors.Errorf("couldn't determine path of placer executable: %v", err)
	}
	canonical, err := filepath.EvalSymlinks(nonCanonical)
	if err != nil {
		return "", perrors.Errorf("couldn't canonicalize path of placer executable: %v", err)
	}
	return canonical, nil
}

func sortedKeys(m map[string]config.SourceConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

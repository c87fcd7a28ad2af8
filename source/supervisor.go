// Package source supervises an untrusted fetcher subprocess: spawning it
// under a reduced uid/gid, requesting the resources it is configured to
// fetch, and demultiplexing its deliveries back into pack labels.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"placer.io/config"
	"placer.io/fetcher"
	"placer.io/pack"
	"placer.io/perrors"
)

// ExecutablePrefix is prepended to a source's configured name to find its
// fetcher executable on disk, alongside the coordinator executable.
const ExecutablePrefix = "placer-source-"

// Delivery is one pack delivered by a fetcher, tagged with the pack
// label it was requested under.
type Delivery struct {
	PackLabel string
	Body      []byte
}

// Supervisor owns one fetcher subprocess for the lifetime of the
// coordinator process.
type Supervisor struct {
	Name     string
	Greeting string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	// resources maps the resource identifier a fetcher was told to fetch
	// back to the pack label it corresponds to.
	resources map[string]string
}

// New resolves coordinatorExecutable's directory to find name's fetcher
// executable, spawns it under cfg's uid/gid, reads its greeting, and
// issues the configured resource requests.
func New(name string, cfg config.SourceConfig, coordinatorExecutable string) (*Supervisor, error) {
	const op = "source.New"

	uid, gid, err := resolveUser(cfg.User, cfg.Group)
	if err != nil {
		return nil, perrors.E(op, name, perrors.Config, err)
	}

	resources := make(map[string]string, len(cfg.Packs))
	for label, resource := range cfg.Packs {
		if other, exists := resources[resource]; exists {
			return nil, perrors.E(op, name, perrors.Config,
				perrors.Errorf("packs %q and %q have duplicate resource: %s", label, other, resource))
		}
		resources[resource] = label
	}

	executablePath := filepath.Join(filepath.Dir(coordinatorExecutable), ExecutablePrefix+name)
	if _, err := os.Stat(executablePath); err != nil {
		return nil, perrors.E(op, name, perrors.Config,
			perrors.Errorf("can't find source executable: %s", executablePath))
	}

	cmd := exec.Command(executablePath)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uid, Gid: gid},
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, perrors.E(op, name, perrors.Source, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, perrors.E(op, name, perrors.Source, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, perrors.E(op, name, perrors.Source,
			perrors.Errorf("couldn't start %s (%v)", executablePath, err))
	}

	s := &Supervisor{
		Name:      name,
		cmd:       cmd,
		stdin:     stdin,
		stdout:    bufio.NewReader(stdout),
		resources: resources,
	}

	greeting, err := fetcher.ReadGreeting(s.stdout)
	if err != nil {
		return nil, perrors.E(op, name, perrors.Source, err)
	}
	s.Greeting = greeting

	requested := make([]string, 0, len(cfg.Packs))
	for _, resource := range cfg.Packs {
		requested = append(requested, resource)
	}
	if err := fetcher.WriteRequest(s.stdin, requested); err != nil {
		return nil, perrors.E(op, name, perrors.Source, err)
	}

	return s, nil
}

// NextFile blocks until a complete pack arrives, returning the pack
// label it was requested under and its raw bytes. Every protocol
// violation here is fatal to the supervisor: the fetcher is considered
// compromised or broken.
func (s *Supervisor) NextFile() (Delivery, error) {
	const op = "source.Supervisor.NextFile"

	d, err := fetcher.ReadDelivery(s.stdout, pack.MaxSize)
	if err != nil {
		return Delivery{}, perrors.E(op, s.Name, perrors.Source, err)
	}

	label, ok := s.resources[d.ResourceID]
	if !ok {
		return Delivery{}, perrors.E(op, s.Name, perrors.Source,
			perrors.Errorf("[%s] I never asked for this: %s", s.Name, d.ResourceID))
	}

	return Delivery{PackLabel: label, Body: d.Body}, nil
}

// Close terminates the fetcher subprocess, if still running.
func (s *Supervisor) Close() error {
	_ = s.stdin.Close()
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

// Greet returns a human-readable identification line for logging.
func (s *Supervisor) Greet() string {
	return fmt.Sprintf("[source:%s] %s", s.Name, s.Greeting)
}

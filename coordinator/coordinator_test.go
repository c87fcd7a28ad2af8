package coordinator

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placer.io/config"
	"placer.io/keyrings"
	"placer.io/pack"
	"placer.io/source"
	"placer.io/target"
)

func TestProcessRoutesDecryptedFilesToTargets(t *testing.T) {
	dir := t.TempDir()

	keyringPath := filepath.Join(dir, "keyring.toml")
	require.NoError(t, keyrings.GenerateRandom(keyringPath))
	producer, err := keyrings.LoadProducer(keyringPath)
	require.NoError(t, err)
	consumerPath := filepath.Join(dir, "consumer.toml")
	require.NoError(t, producer.ExportVerifyKeys(consumerPath))
	consumer, err := keyrings.LoadConsumer(consumerPath)
	require.NoError(t, err)

	u, err := user.Current()
	require.NoError(t, err)
	g, err := user.LookupGroupId(u.Gid)
	require.NoError(t, err)

	targetPath := filepath.Join(dir, "motd")
	table, err := target.NewTable(map[string]config.FileConfig{
		targetPath: {Pack: "motd", User: u.Username, Group: g.Name, Mode: "0644"},
	})
	require.NoError(t, err)

	id := uuid.New()
	encryptor, err := producer.Encryption.GetByLabel(keyrings.DefaultKeyLabel, id[:])
	require.NoError(t, err)
	signer, err := producer.Signing.Get(keyrings.DefaultKeyLabel)
	require.NoError(t, err)

	p := &pack.Pack{
		UUID:  id,
		Files: []pack.File{{Filename: targetPath, Body: []byte("hello\n")}},
	}
	sealed, err := p.EncryptAndSign(encryptor, signer)
	require.NoError(t, err)

	c := &Coordinator{
		state:    Running,
		keyrings: consumer,
		targets:  table,
		sources:  map[string]*source.Supervisor{},
	}

	c.process(taggedDelivery{source: "test", delivery: source.Delivery{PackLabel: "motd", Body: sealed}})

	data, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestProcessLogsAndContinuesOnBadPack(t *testing.T) {
	c := &Coordinator{
		state:   Running,
		targets: &target.Table{},
		sources: map[string]*source.Supervisor{},
	}
	c.process(taggedDelivery{source: "test", delivery: source.Delivery{PackLabel: "motd", Body: []byte("not a pack")}})
}

// TestRunStopsOnContextCancel guards against Run hanging forever when a
// source's fetcher is idle: sup.NextFile blocks in an uninterruptible pipe
// read, so canceling ctx must actually kill the fetcher subprocess to
// unblock it, rather than just canceling a context nothing is selecting on.
func TestRunStopsOnContextCancel(t *testing.T) {
	u, err := user.Current()
	require.NoError(t, err)
	g, err := user.LookupGroupId(u.Gid)
	require.NoError(t, err)

	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"echo 'OK fake-fetcher 1.0 test'\n" +
		"while IFS= read -r line; do\n" +
		"  [ -z \"$line\" ] && break\n" +
		"done\n" +
		"cat >/dev/null\n"
	fetcherPath := filepath.Join(dir, "placer-source-idle")
	require.NoError(t, os.WriteFile(fetcherPath, []byte(script), 0755))
	coordinatorExecutable := filepath.Join(dir, "placer")

	sup, err := source.New("idle", config.SourceConfig{
		User: u.Username, Group: g.Name, Packs: map[string]string{"motd": "motd-resource"},
	}, coordinatorExecutable)
	require.NoError(t, err)

	c := &Coordinator{
		targets: &target.Table{},
		sources: map[string]*source.Supervisor{"idle": sup},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "configuring", Configuring.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "exited", Exited.String())
}

//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"

	"github.com/vishvendra9627/tourist-safety-app/internal/platform/config"
	"github.com/vishvendra9627/tourist-safety-app/pkg/testutil/containers"
)

func TestEnsureTopicIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.KafkaConfig{
		Brokers:           broker.Brokers,
		AuditTopic:        "ensure-topic-test",
		Partitions:        1,
		ReplicationFactor: 1,
	}
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, EnsureTopic(ctx, client, cfg))
	require.NoError(t, EnsureTopic(ctx, client, cfg))

	topics, err := kadm.NewClient(client).ListTopics(ctx, cfg.AuditTopic)
	require.NoError(t, err)
	require.True(t, topics.Has(cfg.AuditTopic))
}

//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/walkable-stations/internal/adapter/heartrails"
	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("walkable-stations-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "get kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "get controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// fakeHeartRails serves the geo and express endpoints for one known address:
// postal code 980-0021 resolves to 仙台市青葉区中央 and two stations lie nearby.
func fakeHeartRails(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		q := r.URL.Query()
		if q.Get("method") == "searchByPostal" && q.Get("postal") == "9800021" {
			_, _ = io.WriteString(w, `{"response":{"location":[{"prefecture":"宮城県","city":"仙台市青葉区","town":"中央","postal":"9800021","x":"140.882438","y":"38.260920"}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"response":{"error":"Cities of the specified keyword were not found."}}`)
	})
	mux.HandleFunc("/express", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":{"station":[
			{"name":"仙台","prefecture":"宮城県","line":"JR東北本線","distance":"90m"},
			{"name":"仙台","prefecture":"宮城県","line":"仙台市地下鉄南北線","distance":"120m"},
			{"name":"広瀬通","prefecture":"宮城県","line":"仙台市地下鉄南北線","distance":"410m"}
		]}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newFinder wires a real StationFinder against the fake upstream.
func newFinder(t *testing.T, upstream *httptest.Server, metrics *observability.Metrics) *domain.StationFinder {
	t.Helper()
	client := heartrails.NewClient(heartrails.Options{Timeout: 5 * time.Second}, metrics, discardLogger())
	geo := heartrails.NewGeoAPI(client, upstream.URL+"/geo")
	express := heartrails.NewExpressAPI(client, upstream.URL+"/express")

	normalizer, err := domain.NewLineNormalizerForProfile(domain.ProfileBranded)
	require.NoError(t, err)
	return domain.NewStationFinder(domain.NewGeocoder(geo, discardLogger()), express, normalizer, discardLogger())
}

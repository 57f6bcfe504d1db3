//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-impact-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/storm-impact-analysis/internal/analysis"
	"github.com/couchcryptid/storm-impact-analysis/internal/config"
	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
	"github.com/couchcryptid/storm-impact-analysis/internal/loader"
	"github.com/couchcryptid/storm-impact-analysis/internal/observability"
	"github.com/couchcryptid/storm-impact-analysis/internal/pipeline"
)

const testReportTopic = "test-storm-impact-reports"

const stormCSV = `STATE__,BGN_DATE,BGN_TIME,STATE,EVTYPE,MAG,FATALITIES,INJURIES,PROPDMG,PROPDMGEXP,CROPDMG,CROPDMGEXP,WFO,REMARKS,REFNUM
40,4/27/2000 0:00:00,1200,OK,TORNADO,0,5,50,10,M,0,,OUN,,1
6,2/14/2000 0:00:00,0800,CA,FLOOD,0,1,2,115,B,0,,MTR,,2
48,8/1/2011 0:00:00,0000,TX,DROUGHT,0,0,0,0,,0,,FWD,,3
`

const cpiCSV = `year,index
2000,100
2011,150
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeFixtures materializes the storm and CPI files under a temp dir.
func writeFixtures(t *testing.T) (dataPath, cpiPath string) {
	t.Helper()

	dir := t.TempDir()
	dataPath = filepath.Join(dir, "storm_events.csv")
	cpiPath = filepath.Join(dir, "cpi_annual.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(stormCSV), 0o600))
	require.NoError(t, os.WriteFile(cpiPath, []byte(cpiCSV), 0o600))
	return dataPath, cpiPath
}

// readReport reads a single message from the report topic and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (*analysis.Report, kafkago.Message) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	var report analysis.Report
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal report message")
	return &report, msg
}

// TestKafkaPublisher verifies the adapter layer: kafka.Publisher writes one
// message per report with the reference year as key.
func TestKafkaPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}

	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	generated := time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)
	report := &analysis.Report{
		GeneratedAt:   generated,
		ReferenceYear: 2011,
		RecordCount:   3,
	}
	require.NoError(t, pub.PublishReport(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, msg := readReport(ctx, t, consumer)
	assert.Equal(t, "2011", string(msg.Key))
	assert.Equal(t, 2011, got.ReferenceYear)
	assert.Equal(t, 3, got.RecordCount)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "3", headers["record_count"])
	assert.Equal(t, generated.Format(time.RFC3339), headers["generated_at"])
}

// TestPipelinePublishesReport wires the full service (loader, CPI table,
// analysis pipeline, Kafka publisher) against real Kafka and verifies the
// published report's numbers.
func TestPipelinePublishesReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	dataPath, cpiPath := writeFixtures(t)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}

	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(
		loader.File{Path: dataPath},
		cpi.File{Path: cpiPath},
		pub,
		discardLogger(),
		metrics,
		2,
	)
	require.NoError(t, p.Run(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	report, msg := readReport(ctx, t, consumer)

	assert.Equal(t, "2011", string(msg.Key))
	assert.Equal(t, 2011, report.ReferenceYear)
	assert.Equal(t, 2000, report.FirstYear)
	assert.Equal(t, 2011, report.LastYear)
	assert.Equal(t, 3, report.RecordCount)
	assert.Equal(t, 1, report.CorrectedRecords)

	// The flood's 115 "B" entry is corrected to millions and inflated by the
	// 100/150 factor before aggregation.
	require.NotNil(t, report.Damage)
	require.Len(t, report.Damage.Rows, 3)
	var floodProperty float64
	for _, row := range report.Damage.Rows {
		if row.EventType == "FLOOD" {
			floodProperty = row.Metrics[analysis.MetricPropertyDamage].Value
		}
	}
	assert.Equal(t, 172_500_000.00, floodProperty)

	require.NotNil(t, report.Harm)
	rows, err := report.Harm.SortedBy(analysis.MetricCombinedHarm)
	require.NoError(t, err)
	assert.Equal(t, "TORNADO", rows[0].EventType)
}

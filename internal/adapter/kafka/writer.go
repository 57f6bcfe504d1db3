package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-impact-analysis/internal/analysis"
	"github.com/couchcryptid/storm-impact-analysis/internal/config"
)

// Publisher produces finished analysis reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishReport serializes one report and writes it as a single message, keyed
// by reference year so consumers can compact to the latest run per vintage.
func (p *Publisher) PublishReport(ctx context.Context, report *analysis.Report) error {
	msg, err := serializeReport(report)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeReport marshals a report into a Kafka message.
func serializeReport(report *analysis.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(report.ReferenceYear)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_count", Value: []byte(strconv.Itoa(report.RecordCount))},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/challenge-tally/internal/importer"
	"github.com/challenge-tally/internal/kafka"
)

// Replays an activity list CSV onto the activity events topic. Useful for
// backfilling a challenge from an exported list and for load-testing the
// consumer path without a live club feed.
func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "activity-events", "Kafka topic")
	path := flag.String("file", "", "Path to the activity list CSV")
	timeZone := flag.String("time-zone", "America/Los_Angeles", "Time zone for activity dates")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *path == "" {
		logger.Error("missing required -file flag")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(*timeZone)
	if err != nil {
		logger.Error("invalid time zone", "time_zone", *timeZone, "error", err)
		os.Exit(1)
	}

	f, err := os.Open(*path)
	if err != nil {
		logger.Error("failed to open activity list", "path", *path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := importer.ParseActivityList(f, logger)
	if err != nil {
		logger.Error("failed to parse activity list", "path", *path, "error", err)
		os.Exit(1)
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), config)
	if err != nil {
		logger.Error("failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	sent := 0
	skipped := 0
	for _, row := range rows {
		activity, err := row.Activity(loc)
		if err != nil {
			logger.Warn("skipping unparseable activity row", "error", err)
			skipped++
			continue
		}

		event := kafka.ActivityEvent{
			ID:             activity.ID,
			UserID:         activity.UserID,
			StartDate:      activity.StartTime.Format(time.RFC3339),
			ElapsedSeconds: activity.ElapsedSeconds,
			MovingSeconds:  activity.MovingSeconds,
			Title:          activity.Title,
			WorkoutType:    activity.WorkoutType,
		}
		data, err := json.Marshal(event)
		if err != nil {
			logger.Warn("failed to marshal event", "activity_id", event.ID, "error", err)
			skipped++
			continue
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(event.ID),
			Value: sarama.ByteEncoder(data),
		}
		if _, _, err := producer.SendMessage(msg); err != nil {
			logger.Error("failed to send event", "activity_id", event.ID, "error", err)
			os.Exit(1)
		}
		sent++
	}

	fmt.Printf("sent %d activity events to %s (%d skipped)\n", sent, *topic, skipped)
}

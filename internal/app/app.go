package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/reassign/internal/health"
	"github.com/vladislavdragonenkov/reassign/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/reassign/internal/service/outbox"
	"github.com/vladislavdragonenkov/reassign/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr      string
	PostgresDSN      string
	KafkaBrokers     string
	DraftsFile       string
	ProductTypesFile string
	RetainAttributes []string
}

// DefaultConfig возвращает базовые настройки: метрики на :9090,
// журнал в памяти, Kafka выключен.
func DefaultConfig() Config {
	return Config{
		MetricsAddr: ":9090",
	}
}

// Run собирает зависимости и выполняет один из двух режимов работы:
// файл драфтов задан — одна обработка батча и выход; иначе при заданных
// брокерах — подписка на топик запросов до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	engine := createEngine(deps, kafkaProducer, cfg.RetainAttributes)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.Store.Ping(pingCtx)
		}))
	}
	healthHandler.RegisterChecker("journal", healthcheck.NewSimpleChecker("journal", func() error {
		listCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := deps.Journal.ListAll(listCtx)
		return err
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	workerDone := startOutboxWorker(workerCtx, deps, kafkaProducer, logger)

	var runErr error
	switch {
	case cfg.DraftsFile != "":
		runErr = runBatch(ctx, cfg, engine, logger)
	case cfg.KafkaBrokers != "":
		runErr = runConsumer(ctx, cfg, engine, kafkaProducer, logger)
	default:
		runErr = errors.New("nothing to run: set drafts file or kafka brokers")
	}

	stopWorker()
	if workerDone != nil {
		<-workerDone
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// runBatch читает драфты из файла, один раз прогоняет движок и логирует итоги.
func runBatch(ctx context.Context, cfg Config, engine reassignEngine, logger *log.Entry) error {
	drafts, err := loadDrafts(cfg.DraftsFile)
	if err != nil {
		return err
	}
	typeTable, err := loadProductTypeTable(cfg.ProductTypesFile)
	if err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"drafts": len(drafts),
		"file":   cfg.DraftsFile,
	}).Info("processing drafts batch")

	stats, err := engine.Execute(ctx, drafts, typeTable)
	logStatistics(logger, stats)
	return err
}

// runConsumer подписывается на топик запросов; каждое сообщение — батч драфтов.
func runConsumer(ctx context.Context, cfg Config, engine reassignEngine, dlqProducer *kafka.Producer, logger *log.Entry) error {
	typeTable, err := loadProductTypeTable(cfg.ProductTypesFile)
	if err != nil {
		return err
	}

	handler := func(msgCtx context.Context, message *sarama.ConsumerMessage) error {
		request, err := kafka.ParseReassignRequest(message)
		if err != nil {
			return err
		}

		logger.WithFields(log.Fields{
			"request_id": request.RequestID,
			"drafts":     len(request.Drafts),
		}).Info("processing reassign request")

		stats, err := engine.Execute(msgCtx, request.Drafts, typeTable)
		logStatistics(logger, stats)
		return err
	}

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	consumer, err := kafka.NewConsumerWithDLQ(
		brokers,
		"reassign-service",
		[]string{kafka.TopicReassignRequests},
		handler,
		dlqProducer,
		3,
	)
	if err != nil {
		return fmt.Errorf("create requests consumer: %w", err)
	}

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start requests consumer: %w", err)
	}

	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop requests consumer")
	}
	return ctx.Err()
}

// startOutboxWorker запускает публикацию накопленных событий в Kafka.
// Без producer воркер не нужен: события остаются в outbox до следующего запуска.
func startOutboxWorker(ctx context.Context, deps *Dependencies, producer *kafka.Producer, logger *log.Entry) <-chan struct{} {
	if producer == nil || deps.OutboxRepo == nil {
		return nil
	}

	publisher := kafka.NewOutboxPublisher(producer, kafka.TopicReassignEvents)
	dlqPublisher := kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)
	worker := outbox.NewWorker(
		deps.OutboxRepo,
		publisher,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithDLQPublisher(dlqPublisher),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()
	return done
}

// loadDrafts читает JSON-массив драфтов из файла.
func loadDrafts(path string) ([]domain.ProductDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drafts file %s: %w", path, err)
	}

	var drafts []domain.ProductDraft
	if err := json.Unmarshal(data, &drafts); err != nil {
		return nil, fmt.Errorf("parse drafts file %s: %w", path, err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("drafts file %s contains no drafts", path)
	}
	return drafts, nil
}

// loadProductTypeTable читает таблицу имя→id типов продуктов; файл опционален.
func loadProductTypeTable(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product types file %s: %w", path, err)
	}

	table := make(map[string]string)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse product types file %s: %w", path, err)
	}
	return table, nil
}

func logStatistics(logger *log.Entry, stats domain.Statistics) {
	logger.WithFields(log.Fields{
		"processed":            stats.Processed,
		"succeeded":            stats.Succeeded,
		"failed":               len(stats.FailedSKUs),
		"anonymized":           stats.Anonymized,
		"product_type_changed": stats.ProductTypeChanged,
		"transaction_retries":  stats.TransactionRetries,
		"bad_request_errors":   stats.BadRequestErrors,
	}).Info("reassignment batch finished")

	for _, skus := range stats.FailedSKUs {
		logger.WithField("skus", skus).Warn("draft failed")
	}
	for _, slug := range stats.AnonymizedSlugs {
		logger.WithField("slug", slug).Info("product anonymized")
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus
// и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}

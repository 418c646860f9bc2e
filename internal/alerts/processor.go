package alerts

import (
	"os"

	"github.com/hibiken/asynq"
)

// NewServeMux routes every task type to its handler.
func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskJobEvent, h.HandleJobEvent)
	mux.HandleFunc(TaskWelcomeEmail, h.HandleWelcomeEmail)
	mux.HandleFunc(TaskAdminAlert, h.HandleAdminAlert)
	return mux
}

// NewServer builds the worker server. Job events outrank emails, which
// outrank admin alerts.
func NewServer(redisAddr string, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueEvents: 10,
			QueueEmails: 5,
			QueueAlerts: 3,
		},
		Logger: asynqLogger{},
	})
}

// NewClient connects the API side to the queue.
func NewClient(redisAddr string) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
}

// asynqLogger routes asynq's own logging to the subsystem logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { log.Debug(args...) }
func (asynqLogger) Info(args ...interface{})  { log.Info(args...) }
func (asynqLogger) Warn(args ...interface{})  { log.Warn(args...) }
func (asynqLogger) Error(args ...interface{}) { log.Error(args...) }
func (asynqLogger) Fatal(args ...interface{}) {
	log.Critical(args...)
	os.Exit(1)
}

package backend

import (
	"errors"

	"tricount/internal/amqp"
	"tricount/internal/config"
	"tricount/internal/log"
	"tricount/internal/storage"
)

// Sinks are the optional outcome consumers of a run.
type Sinks struct {
	Journal  *storage.Journal
	Notifier *amqp.Client
}

// OpenSinks opens the export journal and the AMQP notifier when configured.
// A journal that cannot be opened is an error; an unreachable broker only
// disables notifications.
func OpenSinks(cfg *config.Config, logger *log.Logger) (*Sinks, error) {
	logger = logger.WithComponent(log.ComponentBackend)
	s := &Sinks{}

	if cfg.JournalDBPath != "" {
		j, err := storage.NewJournal(cfg.JournalDBPath)
		if err != nil {
			return nil, err
		}
		s.Journal = j
		logger.Info("Opened export journal", log.FieldPath, cfg.JournalDBPath)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			s.Notifier = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return s, nil
}

// Close releases whatever OpenSinks opened.
func (s *Sinks) Close() error {
	var errs []error
	if s.Notifier != nil {
		errs = append(errs, s.Notifier.Close())
	}
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	return errors.Join(errs...)
}

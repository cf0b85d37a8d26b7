package appServer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/eshikshan/config"
	"github.com/ds124wfegd/eshikshan/internal/database"
	"github.com/ds124wfegd/eshikshan/internal/database/memory"
	mongorepo "github.com/ds124wfegd/eshikshan/internal/database/mongo"
	repository "github.com/ds124wfegd/eshikshan/internal/database/postgres"
	rediscache "github.com/ds124wfegd/eshikshan/internal/database/redis"
	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/internal/service"
	"github.com/ds124wfegd/eshikshan/pkg/broker"
	"github.com/ds124wfegd/eshikshan/pkg/hub"
	"github.com/ds124wfegd/eshikshan/pkg/mailer"
	"github.com/ds124wfegd/eshikshan/pkg/mongo"
	"github.com/ds124wfegd/eshikshan/pkg/postgres"
	"github.com/ds124wfegd/eshikshan/pkg/redis"

	"github.com/sirupsen/logrus"
)

const relayChannel = "eshikshan:notifications"

type dependencies struct {
	postings      database.PostingRepository
	submissions   database.SubmissionRepository
	notifications database.NotificationRepository
	cache         database.NotificationCache

	mailer      mailer.Mailer
	events      service.EventPublisher
	hub         *hub.Hub
	broadcaster service.Broadcaster
	relay       *hub.RedisRelay

	closers []func() error
}

// openDependencies connects every backend selected in cfg. On failure the
// connections opened so far are closed.
func openDependencies(ctx context.Context, cfg *config.Config) (_ *dependencies, err error) {
	deps := &dependencies{hub: hub.New(0)}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	var db *sql.DB
	switch cfg.Storage.Driver {
	case "postgres", "":
		db, err = postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.closers = append(deps.closers, db.Close)

		if err = postgres.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		deps.postings = repository.NewPostingRepository(db)
		deps.submissions = repository.NewSubmissionRepository(db)

	case "memory":
		postings := memory.NewPostingRepository()
		seedDemoPostings(postings)
		deps.postings = postings
		deps.submissions = memory.NewSubmissionRepository()
		logrus.Warn("Using in-memory storage, data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch {
	case cfg.Notifications.Store == "mongo":
		client, mongoErr := mongo.NewMongoClient(ctx, &cfg.Mongo)
		if mongoErr != nil {
			return nil, mongoErr
		}
		deps.closers = append(deps.closers, func() error { return client.Disconnect(context.Background()) })

		mdb := client.Database(cfg.Mongo.Database)
		if err = mongorepo.EnsureIndexes(ctx, mdb); err != nil {
			return nil, err
		}
		deps.notifications = mongorepo.NewNotificationRepository(mdb)
	case db != nil:
		deps.notifications = repository.NewNotificationRepository(db)
	default:
		deps.notifications = memory.NewNotificationRepository()
	}

	deps.broadcaster = deps.hub
	if cfg.Redis.Enabled {
		client, redisErr := redis.NewRedisClient(ctx, &cfg.Redis)
		if redisErr != nil {
			return nil, redisErr
		}
		deps.closers = append(deps.closers, client.Close)

		deps.cache = rediscache.NewCacheRepository(client, cfg.Notifications.CacheTTL)
		deps.relay = hub.NewRedisRelay(client, relayChannel, deps.hub)
		deps.broadcaster = deps.relay
	}

	publisher, err := newPublisher(&cfg.Events)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, publisher.Close)
	deps.events = service.NewBrokerAdapter(publisher)

	if cfg.Email.Enabled {
		deps.mailer = mailer.NewSMTPMailer(&cfg.Email)
		logrus.WithField("host", cfg.Email.Host).Info("SMTP mailer initialized")
	} else {
		deps.mailer = mailer.NewLogMailer()
		logrus.Warn("Email delivery disabled, emails are only logged")
	}

	return deps, nil
}

func newPublisher(cfg *config.EventsConfig) (broker.Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return broker.NewKafkaProducer(cfg.Brokers, cfg.Topic), nil
	case "rabbitmq":
		rabbit, err := broker.NewRabbitMQ(cfg.URL, cfg.Queue)
		if err != nil {
			return nil, err
		}
		logrus.WithField("queue", cfg.Queue).Info("RabbitMQ publisher initialized")
		return rabbit, nil
	case "none", "":
		return broker.NewLogPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// Close releases connections in reverse order of opening.
func (d *dependencies) Close() {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	if err := errors.Join(errs...); err != nil {
		logrus.WithError(err).Error("Failed to close dependencies")
	}
}

func seedDemoPostings(postings *memory.PostingRepository) {
	instructor := &entity.Owner{ID: 1000, Email: "instructor@eshikshan.dev", Name: "Demo Instructor"}
	postings.AddAdminJob(1, "Backend Engineer Intern", instructor)
	postings.AddJob(2, "Frontend Developer", instructor)
	postings.AddJob(3, "Open Campus Role", nil)
	postings.AddHackathon(1, "eShikshan Hack Week", instructor)
}

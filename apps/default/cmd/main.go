package main

import (
	"context"
	"net/http"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/handler"
	"github.com/antinvestor/service-slatedrop/apps/default/service/queue"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/gorilla/handlers"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
)

const serviceName = "service_slatedrop"

func main() {
	ctx := context.Background()

	cfg, err := frame.ConfigFromEnv[config.SlateDropConfig]()
	if err != nil {
		util.Log(ctx).With("err", err).Error("could not process configs")
		return
	}

	ctx, svc := frame.NewService(serviceName, frame.WithConfig(&cfg))

	log := svc.Log(ctx)

	serviceOptions := []frame.Option{frame.WithDatastore()}

	if handleDatabaseMigration(ctx, svc, cfg, log) {
		return
	}

	storageProvider, err := provider.GetStorageProvider(ctx, &cfg)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not setup or access storage")
	}

	jwtAudience := cfg.Oauth2JwtVerifyAudience
	if jwtAudience == "" {
		jwtAudience = serviceName
	}

	app := wire(&cfg, svc, storageProvider, queue.NewPublisher(svc))

	authenticate := func(h http.Handler) http.Handler {
		return svc.AuthenticationMiddleware(h, jwtAudience, cfg.Oauth2JwtVerifyIssuer)
	}
	router := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(app.server.Router(authenticate))

	serviceOptions = append(serviceOptions, frame.WithHTTPHandler(router))

	serviceOptions = append(serviceOptions,
		frame.WithRegisterSubscriber(cfg.QueueThumbnailsGenerateName, cfg.QueueThumbnailsGenerateURL, &app.thumbnails),
		frame.WithRegisterPublisher(cfg.QueueThumbnailsGenerateName, cfg.QueueThumbnailsGenerateURL),
		frame.WithRegisterSubscriber(cfg.QueueObjectsCleanupName, cfg.QueueObjectsCleanupURL, &app.cleanup),
		frame.WithRegisterPublisher(cfg.QueueObjectsCleanupName, cfg.QueueObjectsCleanupURL),
	)

	svc.Init(ctx, serviceOptions...)

	go app.services.Reconciler.Run(ctx, cfg.ReconcileInterval)

	log.WithField("server http port", cfg.HTTPPort()).
		WithField("storage provider", storageProvider.Name()).
		Info(" Initiating server operations")

	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("main -- Could not run Server : %v", err)
	}
}

// components is everything main wires around the frame service.
type components struct {
	db         *storage.Database
	services   *business.Services
	server     *handler.Server
	thumbnails queue.ThumbnailQueueHandler
	cleanup    queue.CleanupQueueHandler
}

func wire(
	cfg *config.SlateDropConfig,
	pool datastore.Pool,
	storageProvider storage.Provider,
	publisher business.Publisher,
) *components {
	db := storage.NewDatabase(pool)
	services := business.NewServices(&business.Dependencies{
		DB:        db,
		Provider:  storageProvider,
		Publisher: publisher,
		Audit:     db.Audits,
		Config:    cfg,
	})

	server := handler.NewServer(services, db.Members, handler.ClaimsPrincipal, cfg)
	if verifier := storage.VerifierOf(storageProvider); verifier != nil {
		server.ServeSignedBlobs(storageProvider, verifier)
	}

	return &components{
		db:         db,
		services:   services,
		server:     server,
		thumbnails: queue.NewThumbnailQueueHandler(db, storageProvider, cfg),
		cleanup:    queue.NewCleanupQueueHandler(db, storageProvider),
	}
}

// handleDatabaseMigration performs database migration if configured to do so.
func handleDatabaseMigration(
	ctx context.Context,
	svc *frame.Service,
	cfg config.SlateDropConfig,
	log *util.LogEntry,
) bool {
	if !cfg.DoDatabaseMigrate() {
		return false
	}

	svc.Init(ctx, frame.WithDatastore())

	err := repository.Migrate(ctx, svc)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not migrate successfully")
	}
	return true
}

package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/tutor-bot/internal/bot"
	"github.com/maxaizer/tutor-bot/internal/clients/sheets"
	"github.com/maxaizer/tutor-bot/internal/config"
	"github.com/maxaizer/tutor-bot/internal/domain/models"
	"github.com/maxaizer/tutor-bot/internal/logger"
	"github.com/maxaizer/tutor-bot/internal/metrics"
	"github.com/maxaizer/tutor-bot/internal/repositories"
	"github.com/maxaizer/tutor-bot/internal/services"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
	"os/signal"
	"syscall"
	"time"
)

const leadsCacheExpiration = 5 * time.Minute

type leadStore interface {
	Add(ctx context.Context, lead models.Lead) error
	GetAll(ctx context.Context) ([]models.Lead, error)
}

func createLeadStore(ctx context.Context, cfg *config.Config) (leadStore, func()) {

	if cfg.Sheets.Enabled() {
		client, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			log.Fatalf("can't create sheets client: %v", err)
		}
		client.SetRateLimit(cfg.Sheets.MaxRequestsPerSecond)
		log.Infof("Leads are stored in spreadsheet %s", cfg.Sheets.SpreadsheetID)

		store := repositories.NewSheetLeadsRepository(client, cfg.Sheets.SheetName)
		return repositories.NewCachedLeads(store, leadsCacheExpiration), func() {}
	}

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}
	log.Infof("Leads are stored in %s", cfg.DB.ConnectionString)

	store := repositories.NewLeadsRepository(dbContext.DB)
	return repositories.NewCachedLeads(store, leadsCacheExpiration), func() {
		if err := dbContext.Close(); err != nil {
			log.Errorf("can't close db: %v", err)
		}
	}
}

func createCatalog(cfg config.CatalogConfig) (*models.Catalog, error) {
	entries := make([]models.SubjectMaterials, 0, len(cfg.Subjects))
	for _, subject := range cfg.Subjects {
		materials := make([]models.Material, 0, len(subject.Materials))
		for _, material := range subject.Materials {
			materials = append(materials, models.Material{Title: material.Title, File: material.File})
		}
		entries = append(entries, models.SubjectMaterials{
			Subject:   models.Subject(subject.Name),
			Channel:   subject.Channel,
			Materials: materials,
		})
	}
	return models.NewCatalog(entries)
}

func runNotifiers(ctx context.Context, cfg *config.Config, bus EventBus.Bus, api *botApi.BotAPI, leads leadStore) func() {

	notifier, err := services.NewOperatorNotifier(bus, api, cfg.Bot.OperatorChatID,
		cfg.Bot.NotifyQueueSize, cfg.Bot.NotifyMaxPerSecond)
	if err != nil {
		log.Fatalf("can't create operator notifier: %v", err)
	}
	go notifier.Run(ctx)

	if cfg.Mail.Enabled() {
		dialer := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
		if _, err = services.NewMailNotifier(bus, dialer, cfg.Mail.From, cfg.Mail.To); err != nil {
			log.Fatalf("can't create mail notifier: %v", err)
		}
	}

	if cfg.Bot.DigestSchedule == "" {
		return func() {}
	}

	digest, err := services.NewLeadsDigest(leads, api, cfg.Bot.OperatorChatID, cfg.Bot.DigestSchedule)
	if err != nil {
		log.Fatalf("can't create leads digest: %v", err)
	}
	return digest.Stop
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Metrics.Address)

	leads, closeLeads := createLeadStore(ctx, cfg)
	defer closeLeads()

	catalog, err := createCatalog(cfg.Catalog)
	if err != nil {
		log.Fatalf("can't load materials catalog: %v", err)
	}

	api, err := bot.NewAPI(cfg.Bot.Token)
	if err != nil {
		log.Fatalf("can't connect to telegram: %v", err)
	}

	bus := EventBus.New()
	stopDigest := runNotifiers(ctx, cfg, bus, api, leads)
	defer stopDigest()

	tgbot, err := bot.NewBot(api, bot.Dependencies{
		Leads:         leads,
		Subscriptions: services.NewSubscriptionChecker(api, cfg.Bot.SubscriptionCacheTTL),
		Materials:     services.NewDirMaterialStorage(cfg.Catalog.MaterialsDir),
		Catalog:       catalog,
		Bus:           bus,
	}, bot.Options{
		OperatorContact: cfg.Bot.OperatorContact,
		AdminIDs:        cfg.Bot.AdminIDs,
		AdminUsernames:  cfg.Bot.AdminUsernames,
		TypingDelay:     cfg.Bot.TypingDelay,
		ProgressDelay:   cfg.Bot.ProgressDelay,
		ProgressSteps:   cfg.Bot.ProgressSteps,
	})
	if err != nil {
		log.Fatalf("can't create bot: %v", err)
	}
	go tgbot.Run(ctx)

	<-ctx.Done()

	log.Info("Shutting down services...")
	tgbot.Stop()
	bus.WaitAsync()
	log.Info("Services stopped.")
}

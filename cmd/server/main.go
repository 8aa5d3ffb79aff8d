// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/adworkshq/outreach-backend/internal/controller"
	"github.com/adworkshq/outreach-backend/internal/db"
	"github.com/adworkshq/outreach-backend/internal/dispatch"
	"github.com/adworkshq/outreach-backend/internal/queue"
	"github.com/adworkshq/outreach-backend/internal/repository"
	"github.com/adworkshq/outreach-backend/internal/service"
	"github.com/adworkshq/outreach-backend/internal/webhook"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	contactRepo := &repository.ContactRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	messageRepo := &repository.QueuedMessageRepository{DB: db.DB}
	webhookRepo := &repository.WebhookRepository{DB: db.DB}

	adapter := webhook.NewAdapter(webhookRepo)
	dispatcher := dispatch.NewDispatcher(messageRepo, campaignRepo, adapter)

	resolver := &service.RecipientResolver{Contacts: contactRepo}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		ContactRepo:  contactRepo,
		Resolver:     resolver,
	}

	// With a broker configured, drains run in cmd/worker. Without one,
	// an in-process subscriber drains campaigns directly.
	if url := os.Getenv("AMQP_URL"); url != "" {
		q, err := queue.DialAMQP(url)
		if err != nil {
			log.Fatal("failed to connect to AMQP broker:", err)
		}
		defer q.Close()
		campaignService.Queue = q
	} else {
		log.Println("⚠️ AMQP_URL not set, draining campaigns in-process")
		q := queue.NewInMemoryQueue()
		orchestrator := dispatch.NewOrchestrator(dispatcher, messageRepo)
		q.Subscribe(queue.DrainTopic, func(payload any) error {
			job, ok := payload.(queue.DrainJob)
			if !ok {
				log.Println("⚠️ invalid drain payload, expected queue.DrainJob")
				return nil
			}
			outcome, err := orchestrator.Drain(job.CampaignID)
			if err != nil {
				return err
			}
			log.Println("campaign", job.CampaignID, outcome.String())
			return campaignService.FinalizeCampaign(job.CampaignID)
		})
		campaignService.Queue = q
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		MessageRepo:     messageRepo,
		Dispatcher:      dispatcher,
	}
	webhookController := &controller.WebhookController{
		Repo:    webhookRepo,
		Adapter: adapter,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Get("/campaigns/{id}/messages", campaignController.ListMessages)
	r.Post("/campaigns/{id}/enqueue", campaignController.EnqueueCampaign)
	r.Post("/campaigns/{id}/personalized-preview", campaignController.PersonalizedPreview)

	// Dispatch + webhook routes
	r.Post("/dispatch/run", campaignController.DispatchRun)
	r.Get("/webhooks", webhookController.ListEndpoints)
	r.Post("/webhooks", webhookController.CreateEndpoint)
	r.Patch("/webhooks/{id}", webhookController.SetEndpointActive)
	r.Post("/webhooks/test", webhookController.SelfTest)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

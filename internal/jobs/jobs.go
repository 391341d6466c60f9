package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/credential"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/lease"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/playback"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// RegisterAll wires every background job into the manager so the admin
// endpoints can trigger them by id. The credential check has its own
// schedule in the validator; registering it here only makes manual
// runs possible.
func RegisterAll(jm *JobManager) {
	jm.Register("lease-sweep", "Lease Sweep", runLeaseSweep)
	jm.Register("link-cache-evict", "Link Cache Eviction", runLinkEviction)
	jm.Register("credential-validation", "Credential Validation", runCredentialValidation)
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startLeaseSweepJob(s, app)
	startLinkEvictionJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func startLeaseSweepJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Lease.SweepIntervalMinutes
	if interval == 0 {
		log.Println("Lease sweep interval is 0, scheduled sweep is disabled.")
		return
	}

	jobId := "lease-sweep"
	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobId, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		err := app.JobManager().RunJob(jobId, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobId, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobId, err)
	}
}

func startLinkEvictionJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().LinkCache.SweepIntervalMinutes
	if interval == 0 {
		log.Println("Link cache eviction interval is 0, scheduled eviction is disabled.")
		return
	}

	jobId := "link-cache-evict"
	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobId, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		err := app.JobManager().RunJob(jobId, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobId, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobId, err)
	}
}

func runLeaseSweep(ctx JobContext) {
	mgr := lease.NewManager(store.New(ctx.DB()), ctx.Config())
	if _, err := mgr.SweepStale(); err != nil {
		log.Printf("Lease sweep failed: %v", err)
	}
}

func runLinkEviction(ctx JobContext) {
	st := store.New(ctx.DB())
	svc := playback.NewService(st, ctx.RD(), credential.NewResolver(st), ctx.Config())
	if _, err := svc.EvictExpired(); err != nil {
		log.Printf("Link cache eviction failed: %v", err)
	}
}

func runCredentialValidation(ctx JobContext) {
	v := credential.NewValidator(store.New(ctx.DB()), ctx.RD(), ctx.Config())
	v.CheckAll()
}

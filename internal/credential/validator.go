package credential

import (
	"context"
	"log"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/config"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/metrics"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// Validator periodically confirms every stored token against the
// provider. A token the provider explicitly rejects, or whose premium
// ran out, gets its accounts disabled. A provider that cannot be
// reached changes nothing, so upstream outages never lock anyone out.
type Validator struct {
	st  *store.Store
	rdc *rd.Client
	cfg *config.Config
}

// NewValidator creates a new credential validator.
func NewValidator(st *store.Store, rdc *rd.Client, cfg *config.Config) *Validator {
	return &Validator{st: st, rdc: rdc, cfg: cfg}
}

// Start runs the validator in the background. An initial check runs
// shortly after boot so restarts pick up expiries that happened while
// the coordinator was down, then checks repeat on the configured
// interval.
func (v *Validator) Start() {
	log.Println("Starting credential validator...")
	delay := time.Duration(v.cfg.Validation.StartupDelayMinutes) * time.Minute
	time.AfterFunc(delay, v.CheckAll)

	ticker := time.NewTicker(time.Duration(v.cfg.Validation.IntervalHours) * time.Hour)
	go func() {
		for range ticker.C {
			v.CheckAll()
		}
	}()
}

// CheckAll verifies every token-carrying account against the provider.
func (v *Validator) CheckAll() {
	log.Println("Running scheduled credential check...")
	owners, err := v.st.ListTokenOwners()
	if err != nil {
		log.Printf("Credential Check Error: Failed to list token owners: %v", err)
		return
	}

	for _, owner := range owners {
		v.CheckOwner(owner)
	}
	log.Println("Finished scheduled credential check.")
}

// CheckOwner verifies a single account's token. Each check gets its
// own timeout so one slow call cannot stall the whole pass.
func (v *Validator) CheckOwner(owner *models.User) {
	fp := Fingerprint(owner.RDToken)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(v.cfg.RealDebrid.TimeoutSeconds)*time.Second)
	defer cancel()

	account, err := v.rdc.User(ctx, owner.RDToken)
	now := time.Now()
	if err != nil {
		if rd.IsRejected(err) {
			log.Printf("Credential for user '%s' rejected by provider: %v", owner.Username, err)
			metrics.ObserveCredentialCheck("rejected")
			if err := v.st.UpsertCredentialValidity(fp, &now, now); err != nil {
				log.Printf("Credential Check Error: Failed to record rejection for user '%s': %v", owner.Username, err)
				return
			}
			v.lockOut(owner, fp)
			return
		}
		// Fail open: a provider we cannot reach proves nothing about the token.
		log.Printf("Credential Check Error: Provider unreachable for user '%s': %v", owner.Username, err)
		metrics.ObserveCredentialCheck("error")
		return
	}

	if err := v.st.UpsertCredentialValidity(fp, account.ExpiresAt, now); err != nil {
		log.Printf("Credential Check Error: Failed to record validity for user '%s': %v", owner.Username, err)
		return
	}

	expired := account.ExpiresAt != nil && !account.ExpiresAt.After(now)
	if expired || !account.Premium {
		if expired {
			log.Printf("Credential for user '%s' expired at %s.", owner.Username, account.ExpiresAt.Format(time.RFC3339))
		} else {
			log.Printf("Credential for user '%s' is no longer premium.", owner.Username)
		}
		metrics.ObserveCredentialCheck("expired")
		v.lockOut(owner, fp)
		return
	}

	metrics.ObserveCredentialCheck("valid")
}

// lockOut disables the owner and every account inheriting the token,
// and drops the token's cached links since they died upstream with it.
func (v *Validator) lockOut(owner *models.User, fp string) {
	disabled, err := v.st.DisableAccountsForOwner(owner.ID)
	if err != nil {
		log.Printf("Credential Check Error: Failed to disable accounts for user '%s': %v", owner.Username, err)
		return
	}
	metrics.AddDisabledAccounts(disabled)

	purged, err := v.st.DeleteLinksForCredential(fp)
	if err != nil {
		log.Printf("Credential Check Error: Failed to purge cached links for user '%s': %v", owner.Username, err)
		return
	}
	log.Printf("Disabled %d account(s) and purged %d cached link(s) for user '%s'.", disabled, purged, owner.Username)
}

// Credential resolution for playback. Accounts either carry their own
// debrid token or inherit one from their parent account, one hop up.

package credential

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/models"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/store"
)

// ErrNoCredential is returned when neither the account nor its parent
// carries a debrid token.
var ErrNoCredential = errors.New("credential: no debrid token for account")

// Fingerprint derives the stable identifier stored and logged in place
// of a raw token. Raw tokens never leave the users table.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:32]
}

// Resolver maps accounts to the credential their playback runs under.
type Resolver struct {
	st *store.Store
}

func NewResolver(st *store.Store) *Resolver {
	return &Resolver{st: st}
}

// Resolve loads the account and resolves its credential.
func (r *Resolver) Resolve(userID int64) (*models.Credential, error) {
	user, err := r.st.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return r.ResolveUser(user)
}

// ResolveUser resolves the credential for an already loaded account.
// An account's own token wins; otherwise the parent's token is used.
// The walk stops after one hop, so a parent who also inherits does not
// pass that token further down.
func (r *Resolver) ResolveUser(user *models.User) (*models.Credential, error) {
	if user.RDToken != "" {
		return &models.Credential{
			Token:       user.RDToken,
			Fingerprint: Fingerprint(user.RDToken),
			OwnerID:     user.ID,
		}, nil
	}
	if user.ParentID == nil {
		return nil, ErrNoCredential
	}

	parent, err := r.st.GetUserByID(*user.ParentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoCredential
		}
		return nil, err
	}
	if parent.RDToken == "" {
		return nil, ErrNoCredential
	}
	return &models.Credential{
		Token:       parent.RDToken,
		Fingerprint: Fingerprint(parent.RDToken),
		OwnerID:     parent.ID,
	}, nil
}

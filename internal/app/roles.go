/**
 * @description
 * Static role assignments for privileged registry and bridge operations.
 * Role membership is configured at deploy time as account ID lists; there is
 * no runtime role-granting endpoint.
 */

package app

import (
	"log"

	"github.com/google/uuid"
)

// Roles holds the account sets allowed to perform privileged operations:
// verifiers drive the registry state machine, configurators manage bridge
// routes.
type Roles struct {
	verifiers     map[uuid.UUID]struct{}
	configurators map[uuid.UUID]struct{}
}

// NewRoles parses the configured account ID lists. Malformed entries are
// skipped with a warning rather than failing startup.
func NewRoles(verifierIDs, configuratorIDs []string) *Roles {
	r := &Roles{
		verifiers:     make(map[uuid.UUID]struct{}, len(verifierIDs)),
		configurators: make(map[uuid.UUID]struct{}, len(configuratorIDs)),
	}
	for _, raw := range verifierIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("level=warn component=roles msg=\"skipping malformed verifier account id\" value=%q", raw)
			continue
		}
		r.verifiers[id] = struct{}{}
	}
	for _, raw := range configuratorIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("level=warn component=roles msg=\"skipping malformed configurator account id\" value=%q", raw)
			continue
		}
		r.configurators[id] = struct{}{}
	}
	return r
}

// CanVerify reports whether the account may verify, reject, pause, or resume
// assets.
func (r *Roles) CanVerify(accountID uuid.UUID) bool {
	_, ok := r.verifiers[accountID]
	return ok
}

// CanConfigureBridge reports whether the account may register bridge routes.
func (r *Roles) CanConfigureBridge(accountID uuid.UUID) bool {
	_, ok := r.configurators[accountID]
	return ok
}

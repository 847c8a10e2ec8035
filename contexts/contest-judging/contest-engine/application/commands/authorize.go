package commands

import (
	"fmt"
	"strings"
	"time"

	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

func requireRole(actor ports.Actor, role ports.ActorRole) error {
	if strings.TrimSpace(actor.UserID) == "" || actor.Role != role {
		return fmt.Errorf("%w: %s role required", domainerrors.ErrNotAuthorized, role)
	}
	return nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}

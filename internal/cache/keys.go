package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func StageLockKey(stage string, sessionID uuid.UUID) string {
	return fmt.Sprintf("stage:%s:%s", stage, sessionID)
}

package detection

import (
	"context"
	"fmt"

	"vigil/internal/directory"
)

// describeActor resolves an actor to a readable identity for the report
// description. Directory failures fall back to the raw identifier; they must
// never abort a rule.
func describeActor(ctx context.Context, dir directory.Directory, actorID string) string {
	if dir == nil {
		return "Actor " + actorID
	}
	actor, err := dir.Resolve(ctx, actorID)
	if err != nil {
		return "Actor " + actorID
	}
	if actor.BadgeNumber != "" {
		return fmt.Sprintf("Officer %s (badge %s)", actor.DisplayName, actor.BadgeNumber)
	}
	return "Officer " + actor.DisplayName
}

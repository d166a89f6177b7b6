package repos

import "errors"

// ErrNotFound is returned by get/update operations when the id does not
// exist. Both the relational and in-memory implementations return it, so
// handlers can map it to 404 without knowing the backend.
var ErrNotFound = errors.New("record not found")

// Store bundles the per-entity repositories handed to services and
// handlers. Either every field is a GORM repo or every field is a
// memstore repo; callers cannot tell the difference.
type Store struct {
	Users        UserRepo
	Challenges   ChallengeRepo
	Solutions    SolutionRepo
	Reviews      ReviewRepo
	Applications ApplicationRepo
	ChatMessages ChatMessageRepo
}

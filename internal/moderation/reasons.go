package moderation

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/chatwarden/resources"
)

var reasonsState = struct {
	once    sync.Once
	reasons map[string]string
}{}

// DefaultLockReason returns the stock reason text for a category, used when
// the chat's lock has no custom reason. Falls back to the category name.
func DefaultLockReason(category Category) string {
	reasonsState.once.Do(loadLockReasons)
	if reason, ok := reasonsState.reasons[string(category)]; ok && reason != "" {
		return reason
	}
	return string(category) + " is locked in this chat"
}

func loadLockReasons() {
	reasonsState.reasons = map[string]string{}
	data, err := resources.FS.ReadFile("lockreasons.yml")
	if err != nil {
		log.WithError(err).Errorln("cant load lock reasons")
		return
	}
	if err := yaml.Unmarshal(data, &reasonsState.reasons); err != nil {
		log.WithError(err).Errorln("cant unmarshal lock reasons")
	}
}

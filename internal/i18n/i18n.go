package i18n

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/chatwarden/resources"
)

// Translations are keyed by the English source string; English needs no file.

var state = struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	loaded       map[string]bool
}{
	translations: make(map[string]map[string]string),
	loaded:       make(map[string]bool),
}

func load(lang string) {
	raw, err := resources.FS.ReadFile(fmt.Sprintf("i18n/%s.yml", lang))
	if err != nil {
		log.WithError(err).WithField("lang", lang).Errorln("cant load i18n")
		return
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(raw, &translations); err != nil {
		log.WithError(err).WithField("lang", lang).Errorln("cant unmarshal i18n")
		return
	}
	state.translations[lang] = translations
}

func Get(key, lang string) string {
	if lang == "" || lang == "en" {
		return key
	}

	state.mu.RLock()
	loaded := state.loaded[lang]
	state.mu.RUnlock()
	if !loaded {
		state.mu.Lock()
		if !state.loaded[lang] {
			load(lang)
			state.loaded[lang] = true
		}
		state.mu.Unlock()
	}

	state.mu.RLock()
	defer state.mu.RUnlock()
	if res, ok := state.translations[lang][key]; ok {
		return res
	}
	log.Tracef(`no translation for key %q`, key)
	return key
}

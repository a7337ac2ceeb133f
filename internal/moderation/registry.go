package moderation

import (
	log "github.com/sirupsen/logrus"
)

// Classifier decides whether an event violates one category. Classifiers are
// pure functions over the event and the chat's allowlist context; they must
// not keep state or touch the platform.
type Classifier func(ev *ContentEvent, ectx *EvalContext) bool

// Registry maps categories to their classifiers. It is built once at startup
// and read-only afterwards, so lookups need no locking.
type Registry struct {
	classifiers map[Category]Classifier
	order       []Category
}

func NewRegistry() *Registry {
	r := &Registry{classifiers: make(map[Category]Classifier, len(AllCategories()))}
	registerDefaults(r)
	return r
}

func (r *Registry) Register(category Category, classifier Classifier) {
	if classifier == nil {
		log.WithField("category", category).Warn("refusing to register nil classifier")
		return
	}
	if _, ok := r.classifiers[category]; !ok {
		r.order = append(r.order, category)
	}
	r.classifiers[category] = classifier
}

func (r *Registry) Get(category Category) (Classifier, bool) {
	c, ok := r.classifiers[category]
	return c, ok
}

// Categories returns registered categories in registration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.order))
	copy(out, r.order)
	return out
}

// classify runs one classifier, isolating panics so a single broken predicate
// never aborts evaluation of the remaining categories.
func (r *Registry) classify(category Category, ev *ContentEvent, ectx *EvalContext) (matched bool) {
	classifier, ok := r.classifiers[category]
	if !ok {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(log.Fields{
				"category": category,
				"chat_id":  ev.ChatID,
				"panic":    rec,
			}).Error("classifier panicked, treating as non-match")
			matched = false
		}
	}()
	return classifier(ev, ectx)
}

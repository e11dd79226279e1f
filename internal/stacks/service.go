// Package stacks ties the collection store to the picker: the entry points
// a results page calls to save a query directly or through the popup.
package stacks

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/stacks/internal/collection"
	"github.com/runnerr0/stacks/internal/picker"
	"github.com/runnerr0/stacks/internal/storage"
)

// QuotaAlert is shown when a save does not fit in storage.
const QuotaAlert = "Could not save: Storage quota exceeded. Try clearing some saved items first."

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

// Service saves queries into collections and gives feedback on the trigger.
type Service struct {
	store        *collection.Store
	host         *picker.Host
	alerter      Alerter
	confirmDelay time.Duration
}

// New creates a Service. A nil host gets a private one; a nil alerter
// drops alerts; a confirmDelay <= 0 uses picker.DefaultConfirmDelay.
func New(store *collection.Store, host *picker.Host, alerter Alerter, confirmDelay time.Duration) *Service {
	if host == nil {
		host = picker.NewHost(nil)
	}
	if alerter == nil {
		alerter = AlertFunc(func(string) {})
	}
	if confirmDelay <= 0 {
		confirmDelay = picker.DefaultConfirmDelay
	}
	return &Service{store: store, host: host, alerter: alerter, confirmDelay: confirmDelay}
}

// Store returns the underlying collection store.
func (s *Service) Store() *collection.Store { return s.store }

// Host returns the picker host.
func (s *Service) Host() *picker.Host { return s.host }

// SaveToCollection saves straight into collectionName (the default
// collection when empty). On success the trigger, if any, shows the saved
// confirmation; on failure the user is alerted and false is returned. A
// trigger still showing the saved confirmation is disabled and the call
// returns false without saving.
func (s *Service) SaveToCollection(ctx context.Context, query, resultHTML string, trigger *picker.Button, sourcesHTML, collectionName string) bool {
	return s.save(ctx, collectionName, collection.Record{
		Query:       query,
		HTML:        resultHTML,
		SourcesHTML: sourcesHTML,
	}, trigger)
}

// ShowPicker opens the collection picker against the current store
// contents. Collections already holding ref are shown as added. onSelect
// receives the chosen or created name.
func (s *Service) ShowPicker(ctx context.Context, trigger *picker.Button, onSelect func(name string), ref *collection.QueryRef) *picker.Picker {
	view := picker.BuildView(s.store.Load(ctx), ref)
	zerolog.Ctx(ctx).Debug().Int("collections", len(view.Rows)).Msg("opening collection picker")
	return s.host.Open(trigger, view, onSelect)
}

// SaveViaPicker opens the picker for query and saves into whichever
// collection the user picks or creates. The trigger's save id, if set,
// becomes the record id. A disabled trigger opens nothing and nil is
// returned.
func (s *Service) SaveViaPicker(ctx context.Context, query, resultHTML string, trigger *picker.Button, sourcesHTML string) *picker.Picker {
	if triggerDisabled(ctx, trigger) {
		return nil
	}

	ref := collection.QueryRef{Query: query}
	if trigger != nil {
		ref.ID = trigger.SaveID()
	}

	return s.ShowPicker(ctx, trigger, func(name string) {
		s.save(ctx, name, collection.Record{
			ID:          ref.ID,
			Query:       query,
			HTML:        resultHTML,
			SourcesHTML: sourcesHTML,
		}, trigger)
	}, &ref)
}

func (s *Service) save(ctx context.Context, name string, rec collection.Record, trigger *picker.Button) bool {
	if triggerDisabled(ctx, trigger) {
		return false
	}

	saved, err := s.store.Save(ctx, name, rec)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("collection", name).Msg("save to collection failed")
		s.alerter.Alert(alertText(err))
		return false
	}

	zerolog.Ctx(ctx).Info().Str("collection", name).Str("id", saved.ID).Msg("query saved")
	if trigger != nil {
		trigger.Confirm(s.confirmDelay)
	}
	return true
}

// triggerDisabled reports whether trigger is in its post-save window.
func triggerDisabled(ctx context.Context, trigger *picker.Button) bool {
	if trigger == nil || !trigger.Disabled() {
		return false
	}
	zerolog.Ctx(ctx).Debug().Str("trigger", trigger.ID()).Msg("trigger disabled, ignoring save")
	return true
}

func alertText(err error) string {
	if errors.Is(err, storage.ErrQuotaExceeded) {
		return QuotaAlert
	}
	return "Could not save: " + err.Error()
}

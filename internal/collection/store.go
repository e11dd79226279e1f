package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultKey is the storage key holding the collections blob.
	DefaultKey = "radargpt_saved_queries"

	// DefaultName is used when a save names no collection.
	DefaultName = "Default Collection"

	DefaultMaxItems        = 20
	DefaultMaxResultChars  = 10000
	DefaultMaxSourcesChars = 5000
)

var (
	// ErrNotFound is returned when a collection or record does not exist.
	ErrNotFound = errors.New("not found")
)

// KV is the string key-value storage the store persists into.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Options tunes a Store. Zero fields take the package defaults.
type Options struct {
	Key             string
	DefaultName     string
	MaxItems        int
	MaxResultChars  int
	MaxSourcesChars int

	// NewID generates ids for records saved without one.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.DefaultName == "" {
		o.DefaultName = DefaultName
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.MaxResultChars <= 0 {
		o.MaxResultChars = DefaultMaxResultChars
	}
	if o.MaxSourcesChars <= 0 {
		o.MaxSourcesChars = DefaultMaxSourcesChars
	}
	if o.NewID == nil {
		o.NewID = NewID
	}
	return o
}

// Store reads and writes every collection as one JSON object under a single
// key. Each mutation loads the whole mapping, changes it and writes it all
// back; concurrent writers race and the last one wins.
type Store struct {
	kv   KV
	opts Options
}

// NewStore creates a Store over kv.
func NewStore(kv KV, opts Options) *Store {
	return &Store{kv: kv, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (s *Store) Options() Options { return s.opts }

// Load returns every collection. Missing or unreadable data yields an empty
// mapping; Load never fails.
func (s *Store) Load(ctx context.Context) Collections {
	cols, err := s.read(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", s.opts.Key).Msg("saved collections unreadable, treating as empty")
		return Collections{}
	}
	return cols
}

// read distinguishes a failing backend (returned) from a corrupt blob
// (logged and replaced by an empty mapping).
func (s *Store) read(ctx context.Context) (Collections, error) {
	raw, ok, err := s.kv.Get(ctx, s.opts.Key)
	if err != nil {
		return nil, fmt.Errorf("read collections: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Collections{}, nil
	}

	var cols Collections
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", s.opts.Key).Msg("corrupt collections blob, starting fresh")
		return Collections{}, nil
	}
	if cols == nil {
		cols = Collections{}
	}
	return cols, nil
}

func (s *Store) write(ctx context.Context, cols Collections) error {
	// Markup is stored unescaped; \u003c escapes would eat into the quota.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cols); err != nil {
		return fmt.Errorf("encode collections: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	if err := s.kv.Set(ctx, s.opts.Key, string(data)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("bytes", len(data)).Msg("writing saved collections failed")
		return fmt.Errorf("write collections: %w", err)
	}
	return nil
}

// Names returns the collection names sorted case-insensitively.
func (s *Store) Names(ctx context.Context) []string {
	return s.Load(ctx).Names()
}

// Get returns the records of one collection, newest first.
func (s *Store) Get(ctx context.Context, name string) ([]Record, bool) {
	recs, ok := s.Load(ctx)[strings.TrimSpace(name)]
	return recs, ok
}

// Contains reports whether the named collection holds a record matching ref.
func (s *Store) Contains(ctx context.Context, name string, ref QueryRef) bool {
	return s.Load(ctx).Contains(strings.TrimSpace(name), ref)
}

// Save prepends rec to the named collection, creating it if needed. The
// name is trimmed and an empty name selects the default collection. A
// missing id is generated, html and sourcesHtml are cut to their limits,
// and the collection is capped by dropping its oldest records. Saving a
// query already present adds another record.
func (s *Store) Save(ctx context.Context, name string, rec Record) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.opts.DefaultName
	}
	if rec.ID == "" {
		rec.ID = s.opts.NewID()
	}
	rec.HTML = truncate(rec.HTML, s.opts.MaxResultChars)
	rec.SourcesHTML = truncate(rec.SourcesHTML, s.opts.MaxSourcesChars)

	cols, err := s.read(ctx)
	if err != nil {
		return Record{}, err
	}

	recs := make([]Record, 0, len(cols[name])+1)
	recs = append(recs, rec)
	recs = append(recs, cols[name]...)
	if len(recs) > s.opts.MaxItems {
		recs = recs[:s.opts.MaxItems]
	}
	cols[name] = recs

	if err := s.write(ctx, cols); err != nil {
		return Record{}, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("collection", name).
		Str("id", rec.ID).
		Int("size", len(recs)).
		Msg("saved query to collection")
	return rec, nil
}

// Remove deletes the record with id from the named collection. The
// collection itself stays, possibly empty.
func (s *Store) Remove(ctx context.Context, name, id string) error {
	name = strings.TrimSpace(name)
	cols, err := s.read(ctx)
	if err != nil {
		return err
	}

	recs, ok := cols[name]
	if !ok {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}

	kept := make([]Record, 0, len(recs))
	for _, r := range recs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(recs) {
		return fmt.Errorf("record %q in %q: %w", id, name, ErrNotFound)
	}

	cols[name] = kept
	return s.write(ctx, cols)
}

// Drop deletes a whole collection.
func (s *Store) Drop(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	cols, err := s.read(ctx)
	if err != nil {
		return err
	}
	if _, ok := cols[name]; !ok {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	delete(cols, name)
	return s.write(ctx, cols)
}

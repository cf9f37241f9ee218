// Package record implements the record store of §4.7: the authoritative
// mapping from record ID to (vector, payload), whose text fields are
// tokenized by the attached full-text index, and the
// stage-then-propagate-then-rollback mutation sequence that keeps every
// vector index, scalar index, and full-text index consistent with it.
//
// Grounded on internal/storage/badger/store.go's Create/Update pattern
// (validate input, stage, commit, log) generalized from a single BadgerDB
// transaction to the fan-out across this package's several index kinds,
// and on internal/replication/store.go's nil-logger-defaults-to-Nop idiom.
package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/arvolabs/vecstore/internal/embedding"
	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/fulltext"
	"github.com/arvolabs/vecstore/internal/kernel"
	"github.com/arvolabs/vecstore/internal/scalarindex"
	"github.com/arvolabs/vecstore/internal/vectorindex"
)

// FieldKind constrains a schema field to one of the scalar kinds a payload
// value may take.
type FieldKind = scalarindex.Kind

// Schema optionally restricts payload shape: fields not listed are
// rejected, and fields listed but absent from a payload are stored as
// nil (§6).
type Schema struct {
	Fields map[string]FieldKind
}

// Record is one stored unit: a stable id, its vector, and its payload.
type Record struct {
	ID      uint64
	Vector  []float64
	Payload map[string]any
}

// clone returns a deep-enough copy for safe rollback: the payload map is
// copied, the vector slice is copied.
func (r *Record) clone() *Record {
	if r == nil {
		return nil
	}
	cp := &Record{ID: r.ID, Vector: append([]float64(nil), r.Vector...)}
	cp.Payload = make(map[string]any, len(r.Payload))
	for k, v := range r.Payload {
		cp.Payload[k] = v
	}
	return cp
}

// Store owns the ground-truth records for one table and keeps every
// registered index consistent with it under a single table-granularity
// lock (§5).
type Store struct {
	mu sync.RWMutex

	dim        int
	metric     kernel.Metric
	textFields []string
	schema     *Schema
	embedder   embedding.Provider
	logger     *zap.Logger

	nextID  uint64
	records map[uint64]*Record

	vectorIndexes map[string]vectorindex.Index
	scalarIndexes map[string]*scalarindex.Index
	fulltextIndex *fulltext.Index
}

// New creates an empty record store for a table of the given vector
// dimension and default metric. textFields names the payload fields
// whose values are concatenated and tokenized into the full-text index
// when one is attached via SetFulltextIndex.
func New(dim int, metric kernel.Metric, textFields []string, embedder embedding.Provider, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dim:           dim,
		metric:        metric,
		textFields:    append([]string(nil), textFields...),
		embedder:      embedder,
		logger:        logger,
		nextID:        1,
		records:       make(map[uint64]*Record),
		vectorIndexes: make(map[string]vectorindex.Index),
		scalarIndexes: make(map[string]*scalarindex.Index),
	}
}

// SetSchema installs an optional payload schema. Pass nil to disable
// schema enforcement.
func (s *Store) SetSchema(schema *Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
}

// AddVectorIndex registers a named vector index that every subsequent and
// existing record is kept in sync with. The index is backfilled with the
// store's current live records.
func (s *Store) AddVectorIndex(name string, idx vectorindex.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vectorIndexes[name]; exists {
		return &errkind.UnknownIndexError{Name: name}
	}
	ids := make([]uint64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := idx.Insert(id, s.records[id].Vector); err != nil {
			return fmt.Errorf("backfill vector index %q: %w", name, err)
		}
	}
	s.vectorIndexes[name] = idx
	return nil
}

// VectorIndex returns the named vector index, or an UnknownIndexError.
func (s *Store) VectorIndex(name string) (vectorindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.vectorIndexes[name]
	if !ok {
		return nil, &errkind.UnknownIndexError{Name: name}
	}
	return idx, nil
}

// AddScalarIndex registers a scalar index over a payload field, backfilled
// from the store's current records.
func (s *Store) AddScalarIndex(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.scalarIndexes[field]; exists {
		return &errkind.UnknownIndexError{Name: field}
	}
	idx := scalarindex.New()
	for id, rec := range s.records {
		if v, ok, err := payloadToValue(rec.Payload[field]); err == nil && ok {
			_ = idx.Insert(v, id)
		}
	}
	s.scalarIndexes[field] = idx
	return nil
}

// ScalarIndex returns the scalar index over field, or an UnknownIndexError.
func (s *Store) ScalarIndex(field string) (*scalarindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.scalarIndexes[field]
	if !ok {
		return nil, &errkind.UnknownIndexError{Name: field}
	}
	return idx, nil
}

// SetFulltextIndex attaches the table's single full-text index, backfilled
// from the store's current records.
func (s *Store) SetFulltextIndex(idx *fulltext.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if text := s.joinTextFields(rec.Payload); text != "" {
			idx.Index(id, text)
		}
	}
	s.fulltextIndex = idx
}

// FulltextIndex returns the attached full-text index, if any.
func (s *Store) FulltextIndex() *fulltext.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fulltextIndex
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns a defensive copy of the record for id.
func (s *Store) Get(id uint64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, &errkind.UnknownIDError{ID: id}
	}
	return rec.clone(), nil
}

// IDs returns every live record id in ascending order.
func (s *Store) IDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) joinTextFields(payload map[string]any) string {
	var parts []string
	for _, f := range s.textFields {
		if v, ok := payload[f]; ok {
			if str, ok := v.(string); ok && str != "" {
				parts = append(parts, str)
			}
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func (s *Store) validateSchema(payload map[string]any) (map[string]any, error) {
	if s.schema == nil {
		return payload, nil
	}
	out := make(map[string]any, len(s.schema.Fields))
	for field, kind := range s.schema.Fields {
		v, present := payload[field]
		if !present || v == nil {
			out[field] = nil
			continue
		}
		got, ok, err := payloadToValue(v)
		if err != nil {
			return nil, err
		}
		if !ok || got.Kind != kind {
			return nil, &errkind.SchemaViolationError{Field: field, Reason: "type mismatch"}
		}
		out[field] = v
	}
	for field := range payload {
		if _, known := s.schema.Fields[field]; !known {
			return nil, &errkind.SchemaViolationError{Field: field, Reason: "unknown field under strict schema"}
		}
	}
	return out, nil
}

// resolveVector returns the vector to store: the explicit vector if
// non-nil, else an auto-embedding of the payload's "text" field, or of
// the joined text fields when "text" is absent or empty (§6).
func (s *Store) resolveVector(payload map[string]any, vector []float64) ([]float64, error) {
	if vector != nil {
		if err := kernel.Validate(vector, s.dim); err != nil {
			return nil, err
		}
		return append([]float64(nil), vector...), nil
	}
	text, _ := payload["text"].(string)
	if text == "" {
		text = s.joinTextFields(payload)
	}
	if text == "" {
		return nil, &errkind.EmbeddingMissingError{}
	}
	if s.embedder == nil {
		return nil, &errkind.EmbeddingMissingError{}
	}
	vec, err := s.embedder.Embed(context.Background(), text)
	if err != nil {
		return nil, fmt.Errorf("auto-embed: %w", err)
	}
	if err := kernel.Validate(vec, s.dim); err != nil {
		return nil, err
	}
	return vec, nil
}

// propagate inserts rec into every index, rolling back any index it
// already succeeded on if a later one fails (§4.7 step c/d).
func (s *Store) propagate(rec *Record) error {
	applied := make([]string, 0, len(s.vectorIndexes))
	for name, idx := range s.vectorIndexes {
		if err := idx.Insert(rec.ID, rec.Vector); err != nil {
			for _, done := range applied {
				_ = s.vectorIndexes[done].Remove(rec.ID)
			}
			return fmt.Errorf("propagate to vector index %q: %w", name, err)
		}
		applied = append(applied, name)
	}

	appliedScalar := make([]string, 0, len(s.scalarIndexes))
	rollbackAll := func() {
		for _, name := range applied {
			_ = s.vectorIndexes[name].Remove(rec.ID)
		}
		for _, field := range appliedScalar {
			if v, ok, err := payloadToValue(rec.Payload[field]); err == nil && ok {
				s.scalarIndexes[field].Remove(v, rec.ID)
			}
		}
	}
	for field, idx := range s.scalarIndexes {
		v, ok, err := payloadToValue(rec.Payload[field])
		if err != nil {
			rollbackAll()
			return err
		}
		if !ok {
			continue
		}
		if err := idx.Insert(v, rec.ID); err != nil {
			rollbackAll()
			return fmt.Errorf("propagate to scalar index %q: %w", field, err)
		}
		appliedScalar = append(appliedScalar, field)
	}

	if s.fulltextIndex != nil {
		if text := s.joinTextFields(rec.Payload); text != "" {
			s.fulltextIndex.Index(rec.ID, text)
		}
	}
	return nil
}

// retract removes rec from every index; used both for Delete and as the
// "old half" of an update/merge that changes indexed fields.
func (s *Store) retract(rec *Record) {
	for _, idx := range s.vectorIndexes {
		_ = idx.Remove(rec.ID)
	}
	for field, idx := range s.scalarIndexes {
		if v, ok, err := payloadToValue(rec.Payload[field]); err == nil && ok {
			idx.Remove(v, rec.ID)
		}
	}
	if s.fulltextIndex != nil {
		s.fulltextIndex.Remove(rec.ID)
	}
}

// Add validates payload and vector, assigns a new id, and propagates the
// record to every index. On any index failure the record is rolled back
// entirely and no id is left live (though, per §3, the id is never
// reused).
func (s *Store) Add(payload map[string]any, vector []float64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean, err := s.validateSchema(payload)
	if err != nil {
		return 0, err
	}
	vec, err := s.resolveVector(clean, vector)
	if err != nil {
		return 0, err
	}

	id := s.nextID
	s.nextID++
	rec := &Record{ID: id, Vector: vec, Payload: clean}
	if err := s.propagate(rec); err != nil {
		s.logger.Error("add rolled back", zap.Uint64("id", id), zap.Error(err))
		return 0, err
	}
	s.records[id] = rec
	return id, nil
}

// Update replaces the payload (and, if vector is non-nil or a text field
// changed, the vector) for an existing record. The old state is retracted
// from every index before the new state is propagated; on failure the old
// state is restored.
func (s *Store) Update(id uint64, payload map[string]any, vector []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.records[id]
	if !ok {
		return &errkind.UnknownIDError{ID: id}
	}

	clean, err := s.validateSchema(payload)
	if err != nil {
		return err
	}
	oldText, _ := old.Payload["text"].(string)
	newText, _ := clean["text"].(string)
	vec := old.Vector
	if vector != nil || newText != oldText || s.joinTextFields(clean) != s.joinTextFields(old.Payload) {
		vec, err = s.resolveVector(clean, vector)
		if err != nil {
			return err
		}
	}

	s.retract(old)
	newRec := &Record{ID: id, Vector: vec, Payload: clean}
	if err := s.propagate(newRec); err != nil {
		if reErr := s.propagate(old); reErr != nil {
			s.logger.Error("update rollback failed to restore prior state",
				zap.Uint64("id", id), zap.Error(reErr))
		}
		return err
	}
	s.records[id] = newRec
	return nil
}

// Merge updates only the fields present in partial, leaving every other
// payload field and the vector untouched (§8 merge-locality property).
func (s *Store) Merge(id uint64, partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.records[id]
	if !ok {
		return &errkind.UnknownIDError{ID: id}
	}

	merged := make(map[string]any, len(old.Payload)+len(partial))
	for k, v := range old.Payload {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	clean, err := s.validateSchema(merged)
	if err != nil {
		return err
	}

	s.retract(old)
	newRec := &Record{ID: id, Vector: old.Vector, Payload: clean}
	if err := s.propagate(newRec); err != nil {
		if reErr := s.propagate(old); reErr != nil {
			s.logger.Error("merge rollback failed to restore prior state",
				zap.Uint64("id", id), zap.Error(reErr))
		}
		return err
	}
	s.records[id] = newRec
	return nil
}

// Upsert inserts when id is absent, otherwise behaves like Update. id == 0
// always inserts, since 0 is never an id Add hands out.
func (s *Store) Upsert(id uint64, payload map[string]any, vector []float64) (uint64, error) {
	s.mu.Lock()
	_, exists := s.records[id]
	s.mu.Unlock()

	if id == 0 || !exists {
		return s.Add(payload, vector)
	}
	if err := s.Update(id, payload, vector); err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes a record and retracts it from every index.
func (s *Store) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return &errkind.UnknownIDError{ID: id}
	}
	s.retract(rec)
	delete(s.records, id)
	return nil
}

// payloadToValue converts a payload scalar into a scalarindex.Value. The
// bool ok return is false for nil (absent-field) values, which carry no
// index entry.
func payloadToValue(v any) (scalarindex.Value, bool, error) {
	switch x := v.(type) {
	case nil:
		return scalarindex.Value{}, false, nil
	case string:
		return scalarindex.String(x), true, nil
	case bool:
		return scalarindex.Bool(x), true, nil
	case int:
		return scalarindex.Number(float64(x)), true, nil
	case int32:
		return scalarindex.Number(float64(x)), true, nil
	case int64:
		return scalarindex.Number(float64(x)), true, nil
	case float32:
		return scalarindex.Number(float64(x)), true, nil
	case float64:
		return scalarindex.Number(x), true, nil
	default:
		return scalarindex.Value{}, false, &errkind.SchemaViolationError{Reason: fmt.Sprintf("unsupported payload value type %T", v)}
	}
}

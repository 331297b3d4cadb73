// Package catalog is the pebble-backed record store for documents and their
// validation rules. The playback engine reads documents to open sessions
// and flips rules to resolved as terminal thread effects; everything else
// about document processing lives outside this service.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"playbackd/pkg/logger"
	"playbackd/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrNotFound is returned when a document or rule does not exist.
var ErrNotFound = fmt.Errorf("catalog: not found")

// Open opens (or creates) the pebble database at path and keeps a global
// handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_catalog", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("catalog_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("catalog_closed")
	return nil
}

// Ready reports whether the catalog is opened and ready.
func Ready() bool { return db != nil }

func docKey(id string) []byte         { return []byte("doc:" + id) }
func ruleKey(doc, rule string) []byte { return []byte("rule:" + doc + ":" + rule) }
func rulePrefix(doc string) []byte    { return []byte("rule:" + doc + ":") }

// SaveDocument writes a document record.
func SaveDocument(d models.Document) error {
	if db == nil {
		return fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	if d.ID == "" {
		return fmt.Errorf("document id missing")
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return db.Set(docKey(d.ID), b, pebble.Sync)
}

// GetDocument looks a document up by id.
func GetDocument(id string) (models.Document, error) {
	var d models.Document
	if db == nil {
		return d, fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	v, closer, err := db.Get(docKey(id))
	if err == pebble.ErrNotFound {
		return d, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	if err != nil {
		return d, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &d); err != nil {
		return d, fmt.Errorf("invalid document JSON: %w", err)
	}
	return d, nil
}

// ListDocuments returns all documents in key order.
func ListDocuments() ([]models.Document, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	prefix := []byte("doc:")
	var out []models.Document
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var d models.Document
		if err := json.Unmarshal(iter.Value(), &d); err != nil {
			return nil, fmt.Errorf("invalid document JSON at %s: %w", iter.Key(), err)
		}
		out = append(out, d)
	}
	return out, iter.Error()
}

// SaveRule writes a validation rule record.
func SaveRule(r models.ValidationRule) error {
	if db == nil {
		return fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	if r.ID == "" || r.Doc == "" {
		return fmt.Errorf("rule id and doc required")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}
	return db.Set(ruleKey(r.Doc, r.ID), b, pebble.Sync)
}

// GetRule looks a rule up.
func GetRule(doc, id string) (models.ValidationRule, error) {
	var r models.ValidationRule
	if db == nil {
		return r, fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	v, closer, err := db.Get(ruleKey(doc, id))
	if err == pebble.ErrNotFound {
		return r, fmt.Errorf("%w: rule %s/%s", ErrNotFound, doc, id)
	}
	if err != nil {
		return r, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &r); err != nil {
		return r, fmt.Errorf("invalid rule JSON: %w", err)
	}
	return r, nil
}

// ListRules returns all rules for one document.
func ListRules(doc string) ([]models.ValidationRule, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog not opened; call catalog.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	prefix := rulePrefix(doc)
	var out []models.ValidationRule
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var r models.ValidationRule
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("invalid rule JSON at %s: %w", iter.Key(), err)
		}
		out = append(out, r)
	}
	return out, iter.Error()
}

// ResolveRule flips a rule to resolved. Idempotent: resolving an already
// resolved rule keeps its original resolved timestamp.
func ResolveRule(doc, id string) error {
	r, err := GetRule(doc, id)
	if err != nil {
		return err
	}
	if r.Resolved {
		return nil
	}
	r.Resolved = true
	r.ResolvedTS = time.Now().UTC().UnixNano()
	if err := SaveRule(r); err != nil {
		return err
	}
	logger.Info("rule_resolved", "doc", doc, "rule", id)
	return nil
}

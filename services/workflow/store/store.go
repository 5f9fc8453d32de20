// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists workflow definitions and execution records in an
// embedded BadgerDB instance. Values are JSON-encoded; keys are prefixed by
// record kind ("wf:" for workflows, "ex:<workflowID>:" for executions).
//
// Deletion of a workflow is soft: the Active flag flips to false and the
// definition stays readable by id, matching the behavior the editor expects
// when a workflow is removed from the list but its history is kept.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
)

// ErrWorkflowNotFound is returned when a workflow id does not exist.
var ErrWorkflowNotFound = errors.New("workflow not found")

const (
	workflowPrefix  = "wf:"
	executionPrefix = "ex:"
)

// Config holds the knobs for opening a store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string

	// InMemory opens a non-persistent database, used by tests.
	InMemory bool
}

// WorkflowStore is a BadgerDB-backed store for workflows and their
// execution history. Safe for concurrent use; Badger provides transaction
// isolation.
type WorkflowStore struct {
	db *badger.DB
}

// Open opens (or creates) the store.
func Open(cfg Config) (*WorkflowStore, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow store: %w", err)
	}
	return &WorkflowStore{db: db}, nil
}

// Close releases the underlying database.
func (s *WorkflowStore) Close() error {
	return s.db.Close()
}

// SaveWorkflow stores a new workflow, assigning an id and timestamps.
func (s *WorkflowStore) SaveWorkflow(wf *datatypes.Workflow) error {
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	now := time.Now()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
	}
	wf.UpdatedAt = now
	wf.Active = true
	return s.put(workflowPrefix+wf.ID, wf)
}

// GetWorkflow loads a workflow by id, active or not.
func (s *WorkflowStore) GetWorkflow(id string) (*datatypes.Workflow, error) {
	var wf datatypes.Workflow
	err := s.get(workflowPrefix+id, &wf)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// ListWorkflows returns all active workflows, oldest first.
func (s *WorkflowStore) ListWorkflows() ([]datatypes.Workflow, error) {
	var workflows []datatypes.Workflow
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(workflowPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var wf datatypes.Workflow
				if err := json.Unmarshal(val, &wf); err != nil {
					return err
				}
				if wf.Active {
					workflows = append(workflows, wf)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})
	return workflows, nil
}

// UpdateWorkflow rewrites an existing workflow and bumps UpdatedAt.
func (s *WorkflowStore) UpdateWorkflow(wf *datatypes.Workflow) error {
	if _, err := s.GetWorkflow(wf.ID); err != nil {
		return err
	}
	wf.UpdatedAt = time.Now()
	return s.put(workflowPrefix+wf.ID, wf)
}

// DeleteWorkflow soft-deletes a workflow by clearing its Active flag.
func (s *WorkflowStore) DeleteWorkflow(id string) error {
	wf, err := s.GetWorkflow(id)
	if err != nil {
		return err
	}
	wf.Active = false
	wf.UpdatedAt = time.Now()
	return s.put(workflowPrefix+id, wf)
}

// SaveExecution stores one execution record under its workflow.
func (s *WorkflowStore) SaveExecution(rec *datatypes.ExecutionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	key := fmt.Sprintf("%s%s:%020d:%s", executionPrefix, rec.WorkflowID, rec.CreatedAt.UnixNano(), rec.ID)
	return s.put(key, rec)
}

// ListExecutions returns the most recent limit execution records for a
// workflow, oldest first. A non-positive limit returns all of them.
func (s *WorkflowStore) ListExecutions(workflowID string, limit int) ([]datatypes.ExecutionRecord, error) {
	var records []datatypes.ExecutionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(executionPrefix + workflowID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec datatypes.ExecutionRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list executions for %s: %w", workflowID, err)
	}
	// Keys embed the creation time, so iteration order is already oldest
	// first; just bound the slice.
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// put JSON-encodes value under key in a single write transaction.
func (s *WorkflowStore) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", keyKind(key), err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", keyKind(key), err)
	}
	return nil
}

func (s *WorkflowStore) get(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

func keyKind(key string) string {
	if strings.HasPrefix(key, executionPrefix) {
		return "execution record"
	}
	return "workflow"
}

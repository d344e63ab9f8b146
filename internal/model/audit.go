package model

import (
	"encoding/json"
	"time"
)

// AuditAction is the closed set of actions recorded in the audit
// ledger.  The action determines which images must be present:
// create carries only a post-image, delete only a pre-image, and
// update carries both.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditRecord is one row of the append-only `audit_records` ledger.
// Records are created once per mutation and never modified or deleted
// afterwards.  The field-level diff is not stored; it is recomputed
// from the two images at read time so the storage format and the diff
// logic can never drift apart.
//
// Fields:
//  ID          – primary key identifier.
//  TargetTable – name of the mutated table (e.g. "reservations").
//  RecordID    – primary key of the mutated row.
//  Action      – create, update or delete.
//  ActorID     – user who performed the mutation.
//  PreImage    – JSON snapshot before the mutation (null for create).
//  PostImage   – JSON snapshot after the mutation (null for delete).
//  CreatedAt   – when the mutation was recorded.
type AuditRecord struct {
	ID          uint64          `json:"id"`                   // audit_records.id
	TargetTable string          `json:"target_table"`         // audit_records.target_table
	RecordID    uint64          `json:"record_id"`            // audit_records.record_id
	Action      AuditAction     `json:"action"`               // audit_records.action
	ActorID     uint64          `json:"actor_id"`             // audit_records.actor_id
	PreImage    json.RawMessage `json:"pre_image,omitempty"`  // audit_records.pre_image (nullable)
	PostImage   json.RawMessage `json:"post_image,omitempty"` // audit_records.post_image (nullable)
	CreatedAt   time.Time       `json:"created_at"`           // audit_records.created_at
}

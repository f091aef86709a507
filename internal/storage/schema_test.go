package storage

import (
	"strings"
	"testing"
)

// Schema application must be safe to run repeatedly against an initialized
// database, so every DDL statement has to be guarded.
func TestSchemaStatementsAreIdempotent(t *testing.T) {
	for i, stmt := range schemaStatements {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("schema statement %d is not idempotent: %s", i, stmt)
		}
	}
	for i, stmt := range indexStatements {
		if !strings.Contains(stmt, "IF NOT EXISTS") {
			t.Errorf("index statement %d is not idempotent: %s", i, stmt)
		}
	}
}

func TestSchemaCoversAllTables(t *testing.T) {
	tables := []string{
		"channels",
		"users",
		"messages",
		"reactions",
		"message_embeddings",
		"sync_state",
		"reminders",
	}

	all := strings.Join(schemaStatements, "\n")
	for _, table := range tables {
		if !strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table+" ") &&
			!strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table+"\n") &&
			!strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("no CREATE TABLE statement for %s", table)
		}
	}
}

func TestSchemaConstraints(t *testing.T) {
	all := strings.Join(schemaStatements, "\n")

	// Re-ingesting the same message must hit the dedup constraint.
	if !strings.Contains(all, "UNIQUE (channel_id, ts)") {
		t.Error("messages table missing UNIQUE (channel_id, ts)")
	}

	// One row per (message, emoji, user).
	if !strings.Contains(all, "UNIQUE (message_id, name, user_id)") {
		t.Error("reactions table missing UNIQUE (message_id, name, user_id)")
	}

	// At most one embedding per message.
	if !strings.Contains(all, "message_id BIGINT NOT NULL UNIQUE REFERENCES messages(id)") {
		t.Error("message_embeddings table missing UNIQUE message_id reference")
	}

	// Deleting a message must take its reactions and embedding with it.
	if strings.Count(all, "ON DELETE CASCADE") < 2 {
		t.Error("expected ON DELETE CASCADE on reactions and message_embeddings")
	}

	if !strings.Contains(all, "VECTOR(1536)") {
		t.Error("message_embeddings missing 1536-dimension vector column")
	}
}

// The ivfflat index is deferred to CreateVectorIndex; it must not be part of
// the boot-time schema.
func TestVectorIndexIsDeferred(t *testing.T) {
	all := strings.Join(schemaStatements, "\n") + strings.Join(indexStatements, "\n")
	if strings.Contains(all, "ivfflat") {
		t.Error("ivfflat index must not be created during schema init")
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error("empty string should map to NULL")
	}
	ns := nullString("value")
	if !ns.Valid || ns.String != "value" {
		t.Errorf("nullString(value) = %+v, want valid", ns)
	}
}

func TestMetaOrEmpty(t *testing.T) {
	if got := string(metaOrEmpty(nil)); got != "{}" {
		t.Errorf("metaOrEmpty(nil) = %s, want {}", got)
	}
	if got := string(metaOrEmpty([]byte(`{"a":1}`))); got != `{"a":1}` {
		t.Errorf("metaOrEmpty preserved = %s", got)
	}
}

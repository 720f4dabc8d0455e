package runlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLedgerAppendAndReload(t *testing.T) {
	t.Parallel()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}

	first := NewRecord(ModeCollect)
	first.SourcesAttempted = []string{"vnexpress", "tuoitre"}
	first.SourcesFailed = []SourceFailure{{Source: "tuoitre", Reason: "timeout"}}
	first.ArticlesNew = 3
	first.ArticlesTotalSeen = 10
	first.Seal(nil)
	if err := ledger.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second := NewRecord(ModeFull)
	second.Seal(errors.New("store unreadable"))
	if err := ledger.Append(second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	all, err := ledger.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ledger holds %d records, want 2", len(all))
	}
	if all[0].RunID != first.RunID || all[0].Status != StatusOK {
		t.Errorf("first record = %s/%s", all[0].RunID, all[0].Status)
	}
	if all[0].SourcesFailed[0].Source != "tuoitre" {
		t.Errorf("source failure = %+v", all[0].SourcesFailed)
	}
	if all[1].Status != StatusFailed || all[1].Error != "store unreadable" {
		t.Errorf("second record = %s/%q", all[1].Status, all[1].Error)
	}
}

func TestLedgerRejectsUnsealedRecord(t *testing.T) {
	t.Parallel()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}

	if err := ledger.Append(NewRecord(ModeCollect)); err == nil {
		t.Fatal("expected error appending an unsealed record")
	}
}

func TestLedgerLastSealed(t *testing.T) {
	t.Parallel()

	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "runs.jsonl"))
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}

	if rec, err := ledger.LastSealed(ModeNotify); err != nil || rec != nil {
		t.Fatalf("LastSealed on empty ledger = %v, %v", rec, err)
	}

	older := NewRecord(ModeNotify)
	older.Seal(nil)
	newer := NewRecord(ModeNotify)
	newer.Seal(nil)
	other := NewRecord(ModeCollect)
	other.Seal(nil)
	for _, r := range []*Record{older, newer, other} {
		if err := ledger.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rec, err := ledger.LastSealed(ModeNotify)
	if err != nil {
		t.Fatalf("LastSealed: %v", err)
	}
	if rec == nil || rec.RunID != newer.RunID {
		t.Fatalf("LastSealed returned %+v, want run %s", rec, newer.RunID)
	}
}

func TestLedgerSkipsDamagedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.jsonl")
	ledger, err := OpenLedger(path)
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}

	rec := NewRecord(ModeOutput)
	rec.Seal(nil)
	if err := ledger.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open for damage: %v", err)
	}
	f.WriteString("{broken\n")
	f.Close()

	all, err := ledger.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 || all[0].RunID != rec.RunID {
		t.Fatalf("LoadAll = %d records, want the 1 intact record", len(all))
	}
}

package provenance

import (
	"testing"

	"github.com/bengalssg/bengal/internal/hashutil"
)

func mkProvenance(t *testing.T, pairs ...string) Provenance {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("mkProvenance: odd number of args")
	}
	var inputs []InputRecord
	for i := 0; i < len(pairs); i += 2 {
		inputs = append(inputs, InputRecord{
			InputType:   InputContent,
			LogicalPath: pairs[i],
			Hash:        hashutil.ContentHash(pairs[i+1]),
		})
	}
	return NewProvenance(inputs)
}

func TestNewProvenance_OrderIndependent(t *testing.T) {
	a := NewProvenance([]InputRecord{
		{InputType: InputContent, LogicalPath: "b.md", Hash: "h2"},
		{InputType: InputContent, LogicalPath: "a.md", Hash: "h1"},
	})
	b := NewProvenance([]InputRecord{
		{InputType: InputContent, LogicalPath: "a.md", Hash: "h1"},
		{InputType: InputContent, LogicalPath: "b.md", Hash: "h2"},
	})
	if a.CombinedHash != b.CombinedHash {
		t.Errorf("combined hash should not depend on input order")
	}
}

func TestRecomputeCombinedHash_MatchesStored(t *testing.T) {
	p := mkProvenance(t, "a.md", "h1", "b.md", "h2")
	if RecomputeCombinedHash(p.Inputs) != p.CombinedHash {
		t.Errorf("recomputed hash does not match stored combined hash")
	}
}

func TestStore_StoreAndIsFresh(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	p := mkProvenance(t, "content/a.md", "h1")
	s.Store(ProvenanceRecord{PageID: "content/a.md", Provenance: p, OutputHash: "out1"})

	if !s.IsFresh("content/a.md", p) {
		t.Errorf("expected fresh after store")
	}

	changed := mkProvenance(t, "content/a.md", "h2")
	if s.IsFresh("content/a.md", changed) {
		t.Errorf("expected stale after input hash change")
	}
}

func TestStore_IsFresh_UnknownPage(t *testing.T) {
	s, _ := Open(t.TempDir())
	p := mkProvenance(t, "x", "h")
	if s.IsFresh("unknown", p) {
		t.Errorf("unknown page should never be fresh")
	}
}

func TestStore_SubvenanceFanOut(t *testing.T) {
	s, _ := Open(t.TempDir())

	p := mkProvenance(t, "templates/page.html", "tmpl-hash")
	for _, page := range []string{"content/a.md", "content/b.md"} {
		s.Store(ProvenanceRecord{PageID: page, Provenance: p, OutputHash: "out"})
	}

	affected := s.GetAffectedBy("tmpl-hash")
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected pages, got %d: %v", len(affected), affected)
	}
}

func TestStore_SubvenanceRemovedOnReplace(t *testing.T) {
	s, _ := Open(t.TempDir())

	first := mkProvenance(t, "templates/page.html", "tmpl-v1")
	s.Store(ProvenanceRecord{PageID: "content/a.md", Provenance: first, OutputHash: "out"})

	second := mkProvenance(t, "templates/page.html", "tmpl-v2")
	s.Store(ProvenanceRecord{PageID: "content/a.md", Provenance: second, OutputHash: "out2"})

	if affected := s.GetAffectedBy("tmpl-v1"); len(affected) != 0 {
		t.Errorf("stale subvenance entry not removed: %v", affected)
	}
	if affected := s.GetAffectedBy("tmpl-v2"); len(affected) != 1 {
		t.Errorf("expected new subvenance entry, got %v", affected)
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := mkProvenance(t, "content/a.md", "h1")
	s.Store(ProvenanceRecord{PageID: "content/a.md", Provenance: p, OutputHash: "out1"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reloaded.IsFresh("content/a.md", p) {
		t.Errorf("expected fresh record to survive reload")
	}
	if affected := reloaded.GetAffectedBy("h1"); len(affected) != 1 {
		t.Errorf("expected subvenance to survive reload, got %v", affected)
	}
}

func TestStore_CorruptCacheTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open on empty dir should not fail: %v", err)
	}
	if _, ok := s.Get("anything"); ok {
		t.Errorf("expected no records in a fresh store")
	}
}

func TestStore_Stats(t *testing.T) {
	s, _ := Open(t.TempDir())
	p := mkProvenance(t, "a.md", "h1", "b.md", "h2")
	s.Store(ProvenanceRecord{PageID: "page1", Provenance: p, OutputHash: "out"})

	stats := s.Stats()
	if stats.PagesTracked != 1 {
		t.Errorf("PagesTracked = %d, want 1", stats.PagesTracked)
	}
	if stats.TotalInputRefs != 2 {
		t.Errorf("TotalInputRefs = %d, want 2", stats.TotalInputRefs)
	}
}

package ircnet

import (
	"testing"

	"github.com/nullbyte-dev/irccd/internal/casemap"
)

func newTestTracker() *Tracker {
	return NewTracker(casemap.ASCII.Fold)
}

func TestTrackerJoinPart(t *testing.T) {
	tr := newTestTracker()
	tr.Join("#chan", "alice")
	tr.Join("#chan", "bob")
	c := tr.Channel("#chan")
	if c == nil || len(c.Members) != 2 {
		t.Fatalf("expected 2 members, got %+v", c)
	}
	tr.Part("#chan", "bob", "self")
	if len(tr.Channel("#chan").Members) != 1 {
		t.Fatal("expected bob removed")
	}
}

func TestTrackerPartSelfRemovesChannel(t *testing.T) {
	tr := newTestTracker()
	tr.Join("#chan", "self")
	tr.Part("#chan", "self", "self")
	if tr.Channel("#chan") != nil {
		t.Fatal("expected channel removed when self parts")
	}
}

func TestTrackerQuitEverywhere(t *testing.T) {
	tr := newTestTracker()
	tr.Join("#a", "alice")
	tr.Join("#b", "alice")
	tr.QuitEverywhere("alice")
	if len(tr.Channel("#a").Members) != 0 || len(tr.Channel("#b").Members) != 0 {
		t.Fatal("expected alice removed from all channels")
	}
}

func TestTrackerRenameEverywhere(t *testing.T) {
	tr := newTestTracker()
	tr.Join("#a", "alice")
	tr.ApplyMode("#a", 'o', true, "alice")
	tr.RenameEverywhere("alice", "alice2")
	c := tr.Channel("#a")
	m, ok := c.Members[casemap.ASCII.Fold("alice2")]
	if !ok {
		t.Fatal("expected renamed member present")
	}
	if !m.HasMode('o') {
		t.Fatal("expected mode preserved across rename")
	}
}

func TestTrackerApplyNames(t *testing.T) {
	tr := newTestTracker()
	is := NewISupport()
	tr.ApplyNames("#chan", []string{"@alice", "+bob", "carol"}, is)
	c := tr.Channel("#chan")
	if len(c.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(c.Members))
	}
	alice := c.Members[casemap.ASCII.Fold("alice")]
	if alice == nil || !alice.HasMode('o') {
		t.Fatal("expected alice to have operator mode")
	}
}

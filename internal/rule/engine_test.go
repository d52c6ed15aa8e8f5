package rule

import (
	"testing"

	"github.com/nullbyte-dev/irccd/internal/errcat"
)

// S2 — Rule add/move/remove, literal scenario from spec §8.
func TestScenarioS2(t *testing.T) {
	e := NewEngine(nil)
	if _, err := e.Add(Rule{Servers: NewSet([]string{"s1"}), Action: Drop}, -1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Add(Rule{Channels: NewSet([]string{"#c"}), Action: Accept}, -1); err != nil {
		t.Fatal(err)
	}
	if got := len(e.List()); got != 2 {
		t.Fatalf("expected 2 rules, got %d", got)
	}

	if err := e.Move(0, 1); err != nil {
		t.Fatal(err)
	}
	list := e.List()
	if list[0].Action != Accept || list[1].Action != Drop {
		t.Fatalf("unexpected order after move: %+v", list)
	}

	if err := e.Remove(0); err != nil {
		t.Fatal(err)
	}
	list = e.List()
	if len(list) != 1 || list[0].Action != Drop {
		t.Fatalf("unexpected state after remove: %+v", list)
	}
}

func TestIndexShiftOnInsertAndRemove(t *testing.T) {
	e := NewEngine(nil)
	e.Add(Rule{Action: Drop, Servers: NewSet([]string{"a"})}, -1)
	e.Add(Rule{Action: Drop, Servers: NewSet([]string{"b"})}, -1)
	e.Add(Rule{Action: Drop, Servers: NewSet([]string{"c"})}, -1)

	// insert at 1 shifts b,c up
	e.Add(Rule{Action: Accept, Servers: NewSet([]string{"x"})}, 1)
	list := e.List()
	order := []string{}
	for _, r := range list {
		for s := range r.Servers {
			order = append(order, s)
		}
	}
	if len(order) != 4 || order[0] != "a" || order[1] != "x" || order[2] != "b" || order[3] != "c" {
		t.Fatalf("unexpected order after insert: %v", order)
	}

	e.Remove(1) // remove x, shift b,c down
	list = e.List()
	order = nil
	for _, r := range list {
		for s := range r.Servers {
			order = append(order, s)
		}
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order after remove: %v", order)
	}
}

func TestAddInvalidAction(t *testing.T) {
	e := NewEngine(nil)
	if _, err := e.Add(Rule{Action: "bogus"}, -1); err == nil {
		t.Fatal("expected error for invalid action")
	} else {
		var ce *errcat.Error
		if ok := asErrcat(err, &ce); !ok || ce.Code != errcat.RuleInvalidAction {
			t.Fatalf("expected RuleInvalidAction, got %v", err)
		}
	}
}

func TestEditAddRemoveSets(t *testing.T) {
	e := NewEngine(nil)
	e.Add(Rule{Channels: NewSet([]string{"#a"}), Action: Drop}, -1)
	accept := Accept
	err := e.Edit(0, Edit{
		Action:      &accept,
		AddChannels: []string{"#b"},
		RemoveChannels: []string{"#a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.Info(0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Action != Accept {
		t.Fatalf("expected accept, got %v", r.Action)
	}
	if _, ok := r.Channels["#a"]; ok {
		t.Fatal("#a should have been removed")
	}
	if _, ok := r.Channels["#b"]; !ok {
		t.Fatal("#b should have been added")
	}
}

func TestInfoOutOfRange(t *testing.T) {
	e := NewEngine(nil)
	if _, err := e.Info(0); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestCasemapOfUsedForSolve(t *testing.T) {
	e := NewEngine(func(server string) string { return "rfc1459" })
	e.Add(Rule{Channels: NewSet([]string{"chan{one}"}), Action: Drop}, -1)
	if e.Solve(Candidate{Server: "s1", Channel: "Chan[One]"}) != false {
		t.Fatal("expected rfc1459 casemapping to fold brackets/braces equal")
	}
}

func asErrcat(err error, target **errcat.Error) bool {
	ce, ok := err.(*errcat.Error)
	if ok {
		*target = ce
	}
	return ok
}

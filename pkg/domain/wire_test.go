package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestWireVeggieKeepsFull64BitPrecision(t *testing.T) {
	v := Veggie{ID: math.MaxUint64, Kind: KindHarvest, Category: CategoryPortrait, Parent: 1 << 60, DNA: math.MaxUint64 - 1, Descriptor: "ipfs://meta"}
	data, err := json.Marshal(v.ToWire())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"id":"18446744073709551615"`) {
		t.Fatalf("expected string id, got %s", data)
	}
	var w WireVeggie
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back, err := w.FromWire()
	if err != nil {
		t.Fatalf("from wire: %v", err)
	}
	if back != v {
		t.Fatalf("expected %+v, got %+v", v, back)
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "-1", "12a", "18446744073709551616"} {
		if _, err := ParseID(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
	if _, err := (WireVeggie{ID: "1", Parent: "x", DNA: "1"}).FromWire(); err == nil {
		t.Fatalf("expected parent parse error")
	}
}

func TestWireSeeds(t *testing.T) {
	seeds := WireSeeds([]Seed{{ID: 9, Kind: KindPlant, Category: CategoryOracle, Rarity: 2.5, Edition: 100, State: SeedWaiting}})
	if len(seeds) != 1 || seeds[0].ID != "9" || seeds[0].State != SeedWaiting {
		t.Fatalf("unexpected wire seeds %+v", seeds)
	}
	if got := WireVeggies(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}

package cart

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/money"
)

var (
	backpack = catalog.Product{ID: 1, Title: "Backpack", Price: 109.95, Category: "bags", Image: "bag.jpg", Rating: catalog.Rating{Rate: 3.9, Count: 120}}
	shirt    = catalog.Product{ID: 2, Title: "T-Shirt", Price: 22.3, Category: "men's clothing"}
	cheap    = catalog.Product{ID: 3, Title: "Sticker", Price: 9.995}
	mug      = catalog.Product{ID: 4, Title: "Mug", Price: 4.5}
	single   = catalog.Product{ID: 1, Price: 19.99}
)

func checkTotals(t *testing.T, st State) {
	t.Helper()
	qty := 0
	var acc money.Accumulator
	for _, it := range st.Items {
		if it.Quantity < 1 {
			t.Errorf("line %d has quantity %d", it.ID, it.Quantity)
		}
		qty += it.Quantity
		acc.Add(it.Price, it.Quantity)
	}
	if st.TotalQuantity != qty {
		t.Errorf("TotalQuantity = %d, want %d", st.TotalQuantity, qty)
	}
	if st.TotalPrice != acc.Total() {
		t.Errorf("TotalPrice = %v, want %v", st.TotalPrice, acc.Total())
	}
}

func TestAddItem_NewLine(t *testing.T) {
	st := AddItem(State{}, single)

	if len(st.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(st.Items))
	}
	got := st.Items[0]
	if got.ID != 1 || got.Quantity != 1 || got.Price != 19.99 {
		t.Errorf("line = %+v", got.RawLine)
	}
	if st.TotalQuantity != 1 || st.TotalPrice != 19.99 {
		t.Errorf("totals = %d, %v", st.TotalQuantity, st.TotalPrice)
	}
}

func TestAddItem_CopiesDisplayFields(t *testing.T) {
	st := AddItem(State{}, backpack)

	want := &Details{Title: "Backpack", Category: "bags", Image: "bag.jpg", Rating: catalog.Rating{Rate: 3.9, Count: 120}}
	if diff := cmp.Diff(want, st.Items[0].Details); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
}

func TestAddItem_SameProductTwice(t *testing.T) {
	st := AddItem(AddItem(State{}, cheap), cheap)

	if len(st.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(st.Items))
	}
	if st.Items[0].Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", st.Items[0].Quantity)
	}
	// The line stores 9.99 but the total is charged 9.995 per add.
	if st.Items[0].Price != 9.99 {
		t.Errorf("Price = %v, want 9.99", st.Items[0].Price)
	}
	if st.TotalPrice != 19.99 {
		t.Errorf("TotalPrice = %v, want 19.99", st.TotalPrice)
	}
	if st.TotalQuantity != 2 {
		t.Errorf("TotalQuantity = %d, want 2", st.TotalQuantity)
	}
}

func TestRemoveItem_SubCentPriceLeavesZeroWhenEmpty(t *testing.T) {
	st := AddItem(AddItem(State{}, cheap), cheap)

	st = RemoveItem(st, cheap)
	if st.TotalPrice != 10 || st.TotalQuantity != 1 {
		t.Errorf("totals = %d, %v, want 1, 10", st.TotalQuantity, st.TotalPrice)
	}
	st = RemoveItem(st, cheap)
	if !st.IsEmpty() || st.TotalPrice != 0 || st.TotalQuantity != 0 {
		t.Errorf("state = %+v, want an empty cart at zero", st)
	}
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	st := State{}
	for _, p := range []catalog.Product{shirt, backpack, shirt, cheap, backpack} {
		st = AddItem(st, p)
	}

	var ids []int
	for _, it := range st.Items {
		ids = append(ids, it.ID)
	}
	if diff := cmp.Diff([]int{2, 1, 3}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAddItem_DoesNotMutateInput(t *testing.T) {
	before := AddItem(State{}, shirt)
	saved := before.Items[0]

	_ = AddItem(before, shirt)
	_ = AddItem(before, backpack)

	if before.Items[0] != saved || len(before.Items) != 1 || before.TotalQuantity != 1 {
		t.Error("AddItem modified its input")
	}
}

func TestAddItem_ExistingLineKeepsPrice(t *testing.T) {
	st := AddItem(State{}, shirt)
	repriced := shirt
	repriced.Price = 30

	st = AddItem(st, repriced)
	if st.Items[0].Price != 22.3 {
		t.Errorf("Price = %v, want 22.3", st.Items[0].Price)
	}
	if st.TotalPrice != 44.6 {
		t.Errorf("TotalPrice = %v, want 44.6", st.TotalPrice)
	}
}

func TestRemoveItem(t *testing.T) {
	two := AddItem(AddItem(State{}, shirt), shirt)

	tests := []struct {
		name    string
		state   State
		product catalog.Product
		wantQty map[int]int
	}{
		{"decrement", two, shirt, map[int]int{2: 1}},
		{"last unit removes line", AddItem(State{}, shirt), shirt, map[int]int{}},
		{"unknown id is a no-op", two, backpack, map[int]int{2: 2}},
		{"empty cart is a no-op", State{}, shirt, map[int]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveItem(tt.state, tt.product)
			checkTotals(t, got)
			if len(got.Items) != len(tt.wantQty) {
				t.Fatalf("got %d lines, want %d", len(got.Items), len(tt.wantQty))
			}
			for _, it := range got.Items {
				if tt.wantQty[it.ID] != it.Quantity {
					t.Errorf("line %d quantity = %d, want %d", it.ID, it.Quantity, tt.wantQty[it.ID])
				}
			}
		})
	}
}

func TestRemoveItem_MiddleLine(t *testing.T) {
	st := AddItem(AddItem(AddItem(State{}, shirt), backpack), mug)
	st = RemoveItem(st, backpack)

	if len(st.Items) != 2 || st.Items[0].ID != 2 || st.Items[1].ID != 3 {
		t.Errorf("items = %+v", st.Items)
	}
	checkTotals(t, st)
}

func TestRemoveItem_DoesNotMutateInput(t *testing.T) {
	before := AddItem(AddItem(State{}, shirt), backpack)
	want := before.cloneItems()

	_ = RemoveItem(before, shirt)

	if diff := cmp.Diff(want, before.Items); diff != "" {
		t.Errorf("RemoveItem modified its input (-want +got):\n%s", diff)
	}
}

func TestAddThenRemove_RoundTrip(t *testing.T) {
	starts := map[string]State{
		"empty":        {},
		"other line":   AddItem(State{}, backpack),
		"same line":    AddItem(State{}, shirt),
		"several":      AddItem(AddItem(AddItem(State{}, shirt), cheap), shirt),
		"after remove": RemoveItem(AddItem(AddItem(State{}, cheap), backpack), cheap),
	}
	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			got := RemoveItem(AddItem(start, shirt), shirt)
			if diff := cmp.Diff(start, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClear(t *testing.T) {
	starts := []State{
		{},
		AddItem(State{}, backpack),
		AddItem(AddItem(AddItem(State{}, shirt), cheap), shirt),
	}
	for _, start := range starts {
		got := Clear(start)
		if len(got.Items) != 0 || got.TotalPrice != 0 || got.TotalQuantity != 0 {
			t.Errorf("Clear = %+v", got)
		}
		if got.Items == nil {
			t.Error("Clear should leave an empty, non-nil item list")
		}
	}
}

// Totals are kept as a running sum, which matches the recomputed sum
// whenever catalog prices are whole cents.
func TestTotalsInvariant_RandomSequences(t *testing.T) {
	products := []catalog.Product{backpack, shirt, mug, {ID: 5, Price: 0.1}, {ID: 6, Price: 0.2}, {ID: 7, Price: 100.01}}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		st := State{}
		for step := 0; step < 50; step++ {
			p := products[rng.Intn(len(products))]
			if rng.Intn(3) == 0 {
				st = RemoveItem(st, p)
			} else {
				st = AddItem(st, p)
			}
			checkTotals(t, st)
			if t.Failed() {
				t.Fatalf("invariant broken on run %d step %d", run, step)
			}
		}
	}
}

func TestFromServer(t *testing.T) {
	got := fromServer([]RawLine{
		{ID: 5, Price: 10, Quantity: 3},
		{ID: 7, Price: 1.005, Quantity: 1},
		{ID: 5, Price: 10, Quantity: 1},
		{ID: 8, Price: 2, Quantity: 0},
	})
	want := []LineItem{
		{RawLine: RawLine{ID: 5, Price: 10, Quantity: 4}},
		{RawLine: RawLine{ID: 7, Price: 1.01, Quantity: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fromServer mismatch (-want +got):\n%s", diff)
	}
}

func TestState_Item(t *testing.T) {
	st := AddItem(State{}, shirt)
	if it, ok := st.Item(2); !ok || it.Quantity != 1 {
		t.Errorf("Item(2) = %+v, %v", it, ok)
	}
	if _, ok := st.Item(1); ok {
		t.Error("Item(1) should be absent")
	}
	if st.IsEmpty() {
		t.Error("cart should not be empty")
	}
}

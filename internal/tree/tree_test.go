package tree_test

import (
	"testing"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

func TestGetSubtreeAndGetValue(t *testing.T) {
	tr := tree.New()
	tr.WithStructureLock(func(root *tree.Node) {
		slots := tree.NewContainer()
		root.AddChild("Slots", slots)
		leaf := tree.NewValueLeaf(common.Float(3.14159))
		slots.AddChild("Temp", leaf)
	})

	if _, err := tr.GetSubtree([]string{"Slots"}); err != nil {
		t.Fatalf("GetSubtree(Slots): %v", err)
	}

	v, err := tr.GetValue([]string{"Slots", "Temp"})
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v.F != 3.14 {
		t.Errorf("GetValue rounded = %v, want 3.14", v.F)
	}
}

func TestGetValuePathNotFound(t *testing.T) {
	tr := tree.New()
	if _, err := tr.GetValue([]string{"nope"}); err != common.ErrPathNotFound {
		t.Errorf("GetValue on missing path = %v, want ErrPathNotFound", err)
	}
}

func TestSetCallbackFiresOnUpdate(t *testing.T) {
	tr := tree.New()
	var leaf *tree.Node
	tr.WithStructureLock(func(root *tree.Node) {
		leaf = tree.NewValueLeaf(common.Int(0))
		root.AddChild("Counter", leaf)
	})

	var got common.Value
	calls := 0
	if err := tr.SetCallback([]string{"Counter"}, func(v common.Value) {
		got = v
		calls++
	}); err != nil {
		t.Fatalf("SetCallback: %v", err)
	}

	leaf.SetValue(common.Int(7))
	if calls != 1 {
		t.Fatalf("callback fired %d times, want 1", calls)
	}
	if got.I != 7 {
		t.Errorf("callback saw value %d, want 7", got.I)
	}
}

func TestContainerPreservesInsertionOrder(t *testing.T) {
	c := tree.NewContainer()
	c.AddChild("b", tree.NewValueLeaf(common.Int(2)))
	c.AddChild("a", tree.NewValueLeaf(common.Int(1)))
	c.AddChild("c", tree.NewValueLeaf(common.Int(3)))

	got := c.Children()
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("Children() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Children()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMinPollPeriodRejectsNegative(t *testing.T) {
	tr := tree.New()
	tr.SetMinPollPeriod(10_000_000_000) // 10s
	if ok := tr.SetMinPollPeriod(-1); ok {
		t.Fatal("SetMinPollPeriod(-1) should be rejected")
	}
	if tr.MinPollPeriod().Seconds() != 10 {
		t.Errorf("MinPollPeriod = %v, want unchanged 10s after rejected setter call", tr.MinPollPeriod())
	}
}

package main

import (
	"reflect"
	"testing"
)

func TestOrderedIndexKeepsInsertionOrder(t *testing.T) {
	o := newOrderedIndex[string, int]()
	o.Put("b", 1)
	o.Put("a", 2)
	o.Put("c", 3)
	o.Put("a", 20) // update in place

	if got := o.Keys(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("keys = %v", got)
	}
	if got := o.Values(); !reflect.DeepEqual(got, []int{1, 20, 3}) {
		t.Errorf("values = %v", got)
	}
}

func TestOrderedIndexReplaceMovesToEnd(t *testing.T) {
	o := newOrderedIndex[string, int]()
	o.Put("x", 1)
	o.Put("y", 2)
	o.Replace("x", 10)

	if got := o.Keys(); !reflect.DeepEqual(got, []string{"y", "x"}) {
		t.Errorf("keys = %v, want [y x]", got)
	}
	if v, _ := o.Get("x"); v != 10 {
		t.Errorf("x = %d, want 10", v)
	}
	if o.Len() != 2 {
		t.Errorf("len = %d, want 2", o.Len())
	}
}

func TestOrderedIndexDelete(t *testing.T) {
	o := newOrderedIndex[int, string]()
	o.Put(1, "one")
	if !o.Delete(1) {
		t.Error("delete of a present key should report true")
	}
	if o.Delete(1) {
		t.Error("second delete should report false")
	}
	if o.Has(1) || o.Len() != 0 {
		t.Error("key still present after delete")
	}
	if _, ok := o.Get(1); ok {
		t.Error("Get found a deleted key")
	}
}

func TestOrderedIndexEachStops(t *testing.T) {
	o := newOrderedIndex[int, int]()
	for i := 0; i < 5; i++ {
		o.Put(i, i*i)
	}
	visited := 0
	o.Each(func(k, v int) bool {
		visited++
		return k < 2
	})
	if visited != 3 {
		t.Errorf("visited %d entries, want 3", visited)
	}
}

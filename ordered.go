package main

import "container/list"

// orderedIndex is an id-keyed set that remembers insertion order.
// Lookup, insert and removal are O(1); iteration follows insertion order,
// and re-inserting a removed key appends it at the end.
type orderedIndex[K comparable, V any] struct {
	order *list.List
	byKey map[K]*list.Element
}

type orderedEntry[K comparable, V any] struct {
	key   K
	value V
}

func newOrderedIndex[K comparable, V any]() *orderedIndex[K, V] {
	return &orderedIndex[K, V]{
		order: list.New(),
		byKey: make(map[K]*list.Element),
	}
}

// Get returns the value stored under key.
func (o *orderedIndex[K, V]) Get(key K) (V, bool) {
	if el, ok := o.byKey[key]; ok {
		return el.Value.(*orderedEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (o *orderedIndex[K, V]) Has(key K) bool {
	_, ok := o.byKey[key]
	return ok
}

// Put stores value under key. An existing key keeps its position.
func (o *orderedIndex[K, V]) Put(key K, value V) {
	if el, ok := o.byKey[key]; ok {
		el.Value.(*orderedEntry[K, V]).value = value
		return
	}
	o.byKey[key] = o.order.PushBack(&orderedEntry[K, V]{key: key, value: value})
}

// Replace removes any entry under key and appends value at the end.
func (o *orderedIndex[K, V]) Replace(key K, value V) {
	o.Delete(key)
	o.byKey[key] = o.order.PushBack(&orderedEntry[K, V]{key: key, value: value})
}

// Delete removes key and reports whether it was present.
func (o *orderedIndex[K, V]) Delete(key K) bool {
	el, ok := o.byKey[key]
	if !ok {
		return false
	}
	o.order.Remove(el)
	delete(o.byKey, key)
	return true
}

// Len returns the number of entries.
func (o *orderedIndex[K, V]) Len() int {
	return len(o.byKey)
}

// Each visits entries in insertion order until fn returns false.
func (o *orderedIndex[K, V]) Each(fn func(key K, value V) bool) {
	for el := o.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*orderedEntry[K, V])
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Values returns the values in insertion order.
func (o *orderedIndex[K, V]) Values() []V {
	out := make([]V, 0, len(o.byKey))
	for el := o.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*orderedEntry[K, V]).value)
	}
	return out
}

// Keys returns the keys in insertion order.
func (o *orderedIndex[K, V]) Keys() []K {
	out := make([]K, 0, len(o.byKey))
	for el := o.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*orderedEntry[K, V]).key)
	}
	return out
}

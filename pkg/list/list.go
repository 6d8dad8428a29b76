// Package list implements a generic intrusive doubly linked list, used
// by the buffer pool for its replacement list and free-frame pool.
package list

// List is an intrusive doubly linked list of Links.
type List[T any] struct {
	head *Link[T]
	tail *Link[T]
	len  int
}

// NewList creates a new, empty list.
func NewList[T any]() *List[T] {
	return &List[T]{}
}

// Len returns the number of links currently in the list.
func (list *List[T]) Len() int {
	return list.len
}

// PeekHead returns a pointer to the head of the list, or nil if empty.
func (list *List[T]) PeekHead() *Link[T] {
	return list.head
}

// PeekTail returns a pointer to the tail of the list, or nil if empty.
func (list *List[T]) PeekTail() *Link[T] {
	return list.tail
}

// PushHead adds value to the start of the list, returning the new link.
func (list *List[T]) PushHead(value T) *Link[T] {
	newlink := &Link[T]{list: list, next: list.head, value: value}
	if list.head != nil {
		list.head.prev = newlink
	}
	list.head = newlink
	if list.tail == nil {
		list.tail = newlink
	}
	list.len++
	return newlink
}

// PushTail adds value to the end of the list, returning the new link.
func (list *List[T]) PushTail(value T) *Link[T] {
	newlink := &Link[T]{list: list, prev: list.tail, value: value}
	if list.tail != nil {
		list.tail.next = newlink
	}
	list.tail = newlink
	if list.head == nil {
		list.head = newlink
	}
	list.len++
	return newlink
}

// Find returns the first link for which f evaluates to true, or nil.
func (list *List[T]) Find(f func(*Link[T]) bool) *Link[T] {
	for l := list.head; l != nil; l = l.next {
		if f(l) {
			return l
		}
	}
	return nil
}

// Map applies f to every link in the list, in head-to-tail order.
func (list *List[T]) Map(f func(*Link[T])) {
	for l := list.head; l != nil; l = l.next {
		f(l)
	}
}

// Link is one node of a List.
type Link[T any] struct {
	list  *List[T]
	prev  *Link[T]
	next  *Link[T]
	value T
}

// GetList returns the list this link currently belongs to, or nil if
// it has been popped.
func (link *Link[T]) GetList() *List[T] {
	return link.list
}

// GetValue returns the link's value.
func (link *Link[T]) GetValue() T {
	return link.value
}

// SetValue sets the link's value.
func (link *Link[T]) SetValue(value T) {
	link.value = value
}

// GetPrev returns the previous link, or nil.
func (link *Link[T]) GetPrev() *Link[T] {
	return link.prev
}

// GetNext returns the next link, or nil.
func (link *Link[T]) GetNext() *Link[T] {
	return link.next
}

// PopSelf removes link from whatever list it belongs to. Calling
// PopSelf on a link not currently in a list is a no-op.
func (link *Link[T]) PopSelf() {
	if link.list == nil {
		return
	}
	switch {
	case link.prev == nil && link.next == nil:
		link.list.head = nil
		link.list.tail = nil
	case link.prev == nil:
		link.next.prev = nil
		link.list.head = link.next
	case link.next == nil:
		link.prev.next = nil
		link.list.tail = link.prev
	default:
		link.prev.next = link.next
		link.next.prev = link.prev
	}
	link.list.len--
	link.list = nil
	link.next = nil
	link.prev = nil
}

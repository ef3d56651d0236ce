package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalopt/utils/container"
)

type testData struct {
}

func (t testData) V() float64 {
	return 0
}

func (t testData) Length() float64 {
	return 0
}

func TestListInit(t *testing.T) {
	l := &container.List[testData]{}
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
	assert.Equal(t, 0, l.Len())
}

func TestListOperation(t *testing.T) {
	l := &container.List[testData]{}

	// test: insert

	// ^, 1, ^
	n1 := &container.ListNode[testData]{
		S:     1,
		Value: testData{},
	}
	l.PushBack(n1)
	// ^, 2, 1, ^
	n2 := &container.ListNode[testData]{
		S:     2,
		Value: testData{},
	}
	l.PushFront(n2)
	// ^, 3, 2, 1, ^
	n3 := &container.ListNode[testData]{
		S:     3,
		Value: testData{},
	}
	n2.InsertBefore(n3)
	// ^, 3, 2, 1, 4, ^
	n4 := &container.ListNode[testData]{
		S:     4,
		Value: testData{},
	}
	n1.InsertAfter(n4)
	assert.Equal(t, 4, l.Len())

	// test: first last next prev

	assert.Same(t, n3, l.First())
	assert.Same(t, n4, l.Last())
	assert.Same(t, n2, l.First().Next())
	assert.Same(t, n1, l.Last().Prev())
	assert.Nil(t, l.First().Prev())
	assert.Nil(t, l.Last().Next())
	assert.Equal(t, []float64{3, 2, 1, 4}, l.Keys())

	// test: remove

	// ^, 3, 1, 4, ^
	l.Remove(n2)
	assert.Equal(t, 3, l.Len())
	assert.Same(t, n1, n3.Next())
	assert.Nil(t, n2.Parent())
	// ^, 1, 4, ^
	l.Remove(n3)
	assert.Same(t, n1, l.First())
	// ^, 1, ^
	l.Remove(n4)
	assert.Same(t, n1, l.First())
	assert.Same(t, n1, l.Last())
	// ^, ^
	l.Remove(n1)
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
}

package executor

import (
	"fmt"
	"sync"

	language "github.com/ionrelay/gqlruntime/internal/language"
)

// fieldMemo caches collectFields results, keyed by object type name and the
// identity of every node in the selection set — not its contents. A list
// field's N elements all share the exact same *language.Field nodes for
// their subselection (the AST is parsed once), so re-running field
// collection for element 2 after element 1 recomputes an identical result;
// keying by identity instead of by a deep equality check makes that reuse
// cheap and exact; keying by value would require hashing the whole tree and
// risks false sharing between structurally-equal but distinct selections.
type fieldMemo struct {
	mu sync.Mutex
	m  map[fieldMemoKey]fieldMemoEntry
}

type fieldMemoKey struct {
	typeName string
	selID    string
}

type fieldMemoEntry struct {
	group    *collectedFieldMap
	deferred []deferredFragment
}

func newFieldMemo() *fieldMemo {
	return &fieldMemo{m: make(map[fieldMemoKey]fieldMemoEntry)}
}

func (fm *fieldMemo) lookup(typeName string, sel language.SelectionSet) (fieldMemoEntry, bool) {
	key := fieldMemoKey{typeName: typeName, selID: selectionSetIdentity(sel)}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	entry, ok := fm.m[key]
	return entry, ok
}

func (fm *fieldMemo) store(typeName string, sel language.SelectionSet, group *collectedFieldMap, deferred []deferredFragment) {
	key := fieldMemoKey{typeName: typeName, selID: selectionSetIdentity(sel)}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.m[key] = fieldMemoEntry{group: group, deferred: deferred}
}

// selectionSetIdentity returns a string uniquely identifying the sequence of
// nodes in sel, empty selections included (each gets the same "empty" key,
// which is safe: an empty selection set always collects to an empty group).
func selectionSetIdentity(sel language.SelectionSet) string {
	if len(sel) == 0 {
		return "empty"
	}
	id := ""
	for _, s := range sel {
		id += fmt.Sprintf("%p,", s)
	}
	return id
}

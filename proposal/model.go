package proposal

import (
	"slices"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/teranos/clangcomplete/ipc"
)

// Model is an ordered, read-only set of items.
type Model struct {
	items []Item
	trie  *patricia.Trie // lower-cased typed text -> []int item indices
}

// NewModel wraps items in a model. The slice is copied.
func NewModel(items []Item) *Model {
	m := &Model{
		items: slices.Clone(items),
		trie:  patricia.NewTrie(),
	}
	for i, item := range m.items {
		if item.TypedText == "" {
			continue
		}
		key := patricia.Prefix(strings.ToLower(item.TypedText))
		if existing := m.trie.Get(key); existing != nil {
			m.trie.Set(key, append(existing.([]int), i))
			continue
		}
		m.trie.Insert(key, []int{i})
	}
	return m
}

// FromCodeCompletions builds a model from a backend response, keeping its order.
func FromCodeCompletions(completions []ipc.CodeCompletion) *Model {
	items := make([]Item, 0, len(completions))
	for _, cc := range completions {
		items = append(items, FromCodeCompletion(cc))
	}
	return NewModel(items)
}

// Size returns the number of items; zero for a nil model.
func (m *Model) Size() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Item returns the item at index i, or the zero Item when i is out of
// range or the model is nil.
func (m *Model) Item(i int) Item {
	if m == nil || i < 0 || i >= len(m.items) {
		return Item{}
	}
	return m.items[i]
}

// Text returns the display text of the item at index i.
func (m *Model) Text(i int) string {
	return m.Item(i).Text
}

// Items returns a copy of all items.
func (m *Model) Items() []Item {
	if m == nil {
		return nil
	}
	return slices.Clone(m.items)
}

// HasItem reports whether some item displays exactly text.
func (m *Model) HasItem(text string) bool {
	for i := 0; i < m.Size(); i++ {
		if m.items[i].Text == text {
			return true
		}
	}
	return false
}

// HasSnippet reports whether some snippet item has the typed text.
func (m *Model) HasSnippet(typedText string) bool {
	for i := 0; i < m.Size(); i++ {
		if m.items[i].Snippet && m.items[i].TypedText == typedText {
			return true
		}
	}
	return false
}

// FilterPrefix returns the items whose typed text starts with prefix, ignoring
// case, in model order.
func (m *Model) FilterPrefix(prefix string) *Model {
	if m.Size() == 0 {
		return NewModel(nil)
	}
	if prefix == "" {
		return NewModel(m.items)
	}

	var indices []int
	_ = m.trie.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(_ patricia.Prefix, item patricia.Item) error {
		indices = append(indices, item.([]int)...)
		return nil
	})
	slices.Sort(indices)

	items := make([]Item, 0, len(indices))
	for _, i := range indices {
		items = append(items, m.items[i])
	}
	return NewModel(items)
}

// SortByPriority returns a copy ordered by ascending priority; ties keep model order.
func (m *Model) SortByPriority() *Model {
	items := m.Items()
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		default:
			return 0
		}
	})
	return NewModel(items)
}

package importer

import (
	"sort"
	"strings"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
)

type statusEntry struct {
	key string
	id  int64
}

// StatusMatcher maps free-text status cells to catalog status ids using
// diacritic- and case-insensitive comparison: exact match first, then
// substring containment in either direction. Entries are kept sorted so
// containment matches are deterministic.
type StatusMatcher struct {
	exact   map[string]int64
	entries []statusEntry
}

// NewStatusMatcher indexes the status catalog by folded name and description.
func NewStatusMatcher(statuses []catalog.Status) *StatusMatcher {
	m := &StatusMatcher{exact: make(map[string]int64, 2*len(statuses))}
	add := func(label string, id int64) {
		key := fold(label)
		if key == "" {
			return
		}
		if _, taken := m.exact[key]; !taken {
			m.exact[key] = id
			m.entries = append(m.entries, statusEntry{key: key, id: id})
		}
	}
	for _, st := range statuses {
		add(st.Name, st.ID)
		add(st.Description, st.ID)
	}
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].key < m.entries[j].key })
	return m
}

// Match resolves one status cell. "aucun" and placeholder cells mean no
// status. An unmatched label is reported false and left unset by the caller.
func (m *StatusMatcher) Match(cell string) (int64, bool) {
	key := fold(NormalizeNumber(cell))
	if key == "" || key == "aucun" {
		return 0, false
	}
	if id, ok := m.exact[key]; ok {
		return id, true
	}
	for _, e := range m.entries {
		if strings.Contains(key, e.key) || strings.Contains(e.key, key) {
			return e.id, true
		}
	}
	return 0, false
}

package entity

import "sort"

// ProcessedState - множество идентификаторов позиций заказов, которые уже были выгружены.
type ProcessedState map[string]struct{}

func NewProcessedState(ids ...string) ProcessedState {
	s := make(ProcessedState, len(ids))
	s.Add(ids...)

	return s
}

func (s ProcessedState) Contains(id string) bool {
	_, ok := s[id]

	return ok
}

// Add добавляет идентификаторы и возвращает количество тех, которых во множестве еще не было.
func (s ProcessedState) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if !s.Contains(id) {
			s[id] = struct{}{}
			added++
		}
	}

	return added
}

func (s ProcessedState) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

package intern

import "sort"

// churnListCap bounds each generation list. Two small sorted lists are enough
// to approximate LRU victims without maintaining a full recency list.
const churnListCap = 32

// churnPair is a value snapshot of a tracked entry: the positive use stamp
// and the stored string. The pair, not a slot index, is the lookup key, so
// the pool survives slot reuse and resizes without back-references.
type churnPair struct {
	stamp int64
	value string
}

// churnPool holds eviction candidates in two generation lists, each sorted
// ascending by stamp. Generation 0 tracks entries seen only on insert,
// generation 1 tracks entries that have been hit since. Entries tracked here
// carry a negated last-use stamp in the table.
type churnPool struct {
	gen0 []churnPair
	gen1 []churnPair
}

func (c *churnPool) gen0Empty() bool { return len(c.gen0) == 0 }

func (c *churnPool) reset() {
	c.gen0 = c.gen0[:0]
	c.gen1 = c.gen1[:0]
}

// regenerate refills the lists from the live entries. Entries already tracked
// (negative stamp) are skipped; the rest are classified by their generation
// bit. Free slots carry next < endOfChain and are ignored.
func (c *churnPool) regenerate(entries []entry) {
	for i := range entries {
		e := &entries[i]
		if e.next < endOfChain || e.last <= 0 {
			continue
		}
		p := churnPair{stamp: e.last, value: e.value}
		if p.stamp&1 == 0 {
			c.gen0 = churnInsert(c.gen0, p)
		} else {
			c.gen1 = churnInsert(c.gen1, p)
		}
	}
}

// churnInsert places p into list keeping it sorted ascending by stamp. With
// spare capacity the pair always enters; at capacity it only displaces the
// newest pair when strictly older than it.
func churnInsert(list []churnPair, p churnPair) []churnPair {
	n := len(list)
	if n < churnListCap {
		i := sort.Search(n, func(j int) bool { return list[j].stamp > p.stamp })
		list = append(list, churnPair{})
		copy(list[i+1:], list[i:])
		list[i] = p
		return list
	}
	if p.stamp < list[n-1].stamp {
		i := sort.Search(n-1, func(j int) bool { return list[j].stamp > p.stamp })
		copy(list[i+1:], list[i:n-1])
		list[i] = p
	}
	return list
}

// remove drops the pair with the given positive stamp from the list of its
// generation. Binary search by stamp; stamps are unique within a list since
// the use counter never repeats a value.
func (c *churnPool) remove(stamp int64) {
	list := &c.gen0
	if stamp&1 == 1 {
		list = &c.gen1
	}
	l := *list
	i := sort.Search(len(l), func(j int) bool { return l[j].stamp >= stamp })
	if i < len(l) && l[i].stamp == stamp {
		*list = append(l[:i], l[i+1:]...)
	}
}

// selectVictim pops the oldest tracked pair. Generation 0 is preferred;
// generation 1 is drawn from when generation 0 is exhausted or when both
// list heads predate the previous victim's stamp, meaning generation 0 has
// nothing older to offer than what was already churned away.
func (c *churnPool) selectVictim(lastRemoved int64) (stamp int64, value string, ok bool) {
	fromGen1 := false
	switch {
	case len(c.gen1) == 0:
	case len(c.gen0) == 0:
		fromGen1 = true
	case c.gen0[0].stamp < lastRemoved && c.gen1[0].stamp < lastRemoved:
		fromGen1 = true
	}
	if fromGen1 {
		p := c.gen1[0]
		c.gen1 = append(c.gen1[:0], c.gen1[1:]...)
		return p.stamp, p.value, true
	}
	if len(c.gen0) == 0 {
		return 0, "", false
	}
	p := c.gen0[0]
	c.gen0 = append(c.gen0[:0], c.gen0[1:]...)
	return p.stamp, p.value, true
}

package store

import "github.com/heartmarshall/docstore/internal/domain"

// recordSet keeps records by id and remembers insertion order.
type recordSet struct {
	records map[string]domain.Record
	order   []string
}

func newRecordSet() *recordSet {
	return &recordSet{records: make(map[string]domain.Record)}
}

// put inserts or replaces a record. Replacing keeps the original position.
func (c *recordSet) put(id string, rec domain.Record) {
	if _, ok := c.records[id]; !ok {
		c.order = append(c.order, id)
	}
	c.records[id] = rec
}

func (c *recordSet) remove(id string) {
	if _, ok := c.records[id]; !ok {
		return
	}
	delete(c.records, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

package engine

// MemoryCache is a map-backed ObjectCache tracking which table and schema
// metadata entries are still valid. Schema removal uses a separate bucket
// from table removal.
type MemoryCache struct {
	tables  map[string]bool
	schemas map[string]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		tables:  map[string]bool{},
		schemas: map[string]bool{},
	}
}

func (c *MemoryCache) PutTable(name string)  { c.tables[name] = true }
func (c *MemoryCache) PutSchema(name string) { c.schemas[name] = true }

func (c *MemoryCache) HasTable(name string) bool  { return c.tables[name] }
func (c *MemoryCache) HasSchema(name string) bool { return c.schemas[name] }

func (c *MemoryCache) RemoveTable(name string) {
	delete(c.tables, name)
}

func (c *MemoryCache) RemoveSchema(name string) {
	delete(c.schemas, name)
}

func (c *MemoryCache) Flush() {
	c.tables = map[string]bool{}
	c.schemas = map[string]bool{}
}

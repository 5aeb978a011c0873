package core

// SourceConfig holds configuration for connecting to the upstream data source.
type SourceConfig struct {
	Type       string            `koanf:"type" json:"type"` // mongo, duckdb, postgres, sqlite, redis, jsonl
	URI        string            `koanf:"uri" json:"uri,omitempty"`
	Host       string            `koanf:"host" json:"host,omitempty"`
	Port       int               `koanf:"port" json:"port,omitempty"`
	Username   string            `koanf:"username" json:"username,omitempty"`
	Password   string            `koanf:"password" json:"-"`
	Database   string            `koanf:"database" json:"database"`
	Collection string            `koanf:"collection" json:"collection"`
	Options    map[string]string `koanf:"options" json:"options,omitempty"`
}

// Field is one named value of a source document.
type Field struct {
	Key   string
	Value any
}

// Document is an ordered set of fields as returned by a source.
type Document []Field

// Get returns the value stored under key.
func (d Document) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

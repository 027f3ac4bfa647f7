package schema

// CatalogEntry declares one domain and its projects, in registration order.
type CatalogEntry struct {
	Domain   string   `mapstructure:"domain" yaml:"domain" json:"domain"`
	Projects []string `mapstructure:"projects" yaml:"projects" json:"projects"`
}

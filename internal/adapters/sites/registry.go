package sites

import (
	"fmt"

	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/funda"
	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/huurwoningen"
	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/kamernet"
	"github.com/Robertosoftware/rentify-nl/internal/adapters/sites/pararius"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// registry maps source names to adapter constructors.
var registry = map[string]func() port.SiteAdapterPort{
	"pararius":     func() port.SiteAdapterPort { return pararius.New() },
	"funda":        func() port.SiteAdapterPort { return funda.New() },
	"kamernet":     func() port.SiteAdapterPort { return kamernet.New() },
	"huurwoningen": func() port.SiteAdapterPort { return huurwoningen.New() },
}

// ForSource returns the site adapter for a configured source name.
func ForSource(name string) (port.SiteAdapterPort, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown scraper source: %s", name)
	}
	return ctor(), nil
}

// Known returns the names of all registered sources.
func Known() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

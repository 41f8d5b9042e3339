package config

import "maps"

// DocumentConfig holds settings for a single sheet document.
// Pointer fields distinguish "not set" from an explicit zero value.
type DocumentConfig struct {
	// YTolerance overrides the row-splitting threshold.
	YTolerance *float64 `yaml:"yTolerance,omitempty"`

	// HeaderFilter enables or disables canvas label removal.
	HeaderFilter *bool `yaml:"headerFilter,omitempty"`

	// Cookie is sent with the page request. Private documents need the
	// session cookie of a logged-in browser.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in the page request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Output is the file the table is written to.
	Output string `yaml:"output,omitempty"`

	// Format is the export format for Output.
	Format string `yaml:"format,omitempty"`
}

// File represents the structure of the .replaysheet configuration file.
type File struct {
	// Defaults applies to every document unless overridden.
	Defaults DocumentConfig `yaml:"defaults,omitempty"`

	// Documents maps sheet URLs to document-specific settings.
	Documents map[string]DocumentConfig `yaml:"documents,omitempty"`
}

// GetDocumentConfig returns the configuration for url, merged over defaults.
func (cf *File) GetDocumentConfig(url string) DocumentConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	doc, ok := cf.Documents[url]
	if !ok {
		return result
	}

	if doc.YTolerance != nil {
		result.YTolerance = doc.YTolerance
	}
	if doc.HeaderFilter != nil {
		result.HeaderFilter = doc.HeaderFilter
	}
	if doc.Cookie != "" {
		result.Cookie = doc.Cookie
	}
	if len(doc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(doc.Headers))
		}
		maps.Copy(result.Headers, doc.Headers)
	}
	if doc.Output != "" {
		result.Output = doc.Output
	}
	if doc.Format != "" {
		result.Format = doc.Format
	}

	return result
}

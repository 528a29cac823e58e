package build

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const sitemapXMLNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// writeSitemap emits sitemap.xml for every page, using source file
// modification times for lastmod.
func (d *Driver) writeSitemap(pages []string) error {
	base := strings.TrimSuffix(d.cfg.Site.BaseURL, "/")
	set := sitemapSet{XMLNS: sitemapXMLNS}

	for _, page := range pages {
		loc := base + d.pageURL(page)
		entry := sitemapURL{Loc: loc}
		if info, err := os.Stat(page); err == nil {
			entry.LastMod = info.ModTime().UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}
	sort.Slice(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	out := filepath.Join(d.roots.Output, "sitemap.xml")
	if err := os.MkdirAll(d.roots.Output, 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, append([]byte(xml.Header), data...), 0o644)
}

// pageURL maps a source page to its public URL path.
func (d *Driver) pageURL(page string) string {
	out := d.outputPath(page)
	rel, err := filepath.Rel(d.roots.Output, out)
	if err != nil {
		return "/"
	}
	url := "/" + filepath.ToSlash(rel)
	// directory-style URLs for pretty output and index pages
	url = strings.TrimSuffix(url, "index.html")
	return url
}

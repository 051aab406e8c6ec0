// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// hostOf maps a source name to the host its rate limit should apply to,
// used to wire SourceConfig.RatePerWindow/WindowSeconds onto the shared
// Fetcher's per-host token buckets.
var hostOf = map[string]string{
	"unpaywall": "api.unpaywall.org",
	"core":      "api.core.ac.uk",
	"openalex":  "api.openalex.org",
	"crossref":  "api.crossref.org",
	"biorxiv":   "www.biorxiv.org",
	"arxiv":     "export.arxiv.org",
	"pmc":       "www.ncbi.nlm.nih.gov",
	"europepmc": "www.ebi.ac.uk",
	"doaj":      "doaj.org",
}

// BuildRegistry constructs the enabled Resolvers from configuration,
// applying each source's declared rate limit to the shared Fetcher's
// per-host token buckets and folding the ten named adapters into the
// eight tier slots described in SPEC_FULL.md §4.1.
func BuildRegistry(cfg types.EngineConfig, fetcher *fetch.Fetcher) *Registry {
	var resolvers []Resolver

	add := func(name string, r Resolver) {
		sc, ok := cfg.Sources[name]
		if !ok || !sc.Enabled {
			return
		}
		if host, ok := hostOf[name]; ok {
			fetcher.SetHostLimit(host, sc.RatePerWindow, sc.WindowSeconds)
		}
		resolvers = append(resolvers, r)
	}

	if sc, ok := cfg.Sources["institutional"]; ok && sc.Enabled {
		resolvers = append(resolvers, NewInstitutional(sc.Tier, sc.ProxyTemplate))
	}
	if sc, ok := cfg.Sources["unpaywall"]; ok {
		add("unpaywall", NewUnpaywall(fetcher, sc.Tier, sc.Email))
	}
	if sc, ok := cfg.Sources["core"]; ok {
		add("core", NewCore(fetcher, sc.Tier, sc.APIKey))
	}
	if sc, ok := cfg.Sources["openalex"]; ok {
		add("openalex", NewOpenAlex(fetcher, sc.Tier, sc.Email))
	}
	if sc, ok := cfg.Sources["crossref"]; ok {
		add("crossref", NewCrossref(fetcher, sc.Tier))
	}
	if sc, ok := cfg.Sources["biorxiv"]; ok {
		add("biorxiv", NewBioRxiv(fetcher, sc.Tier))
	}
	if sc, ok := cfg.Sources["arxiv"]; ok {
		add("arxiv", NewArxiv(fetcher, sc.Tier))
	}
	if sc, ok := cfg.Sources["pmc"]; ok {
		add("pmc", NewPMC(fetcher, sc.Tier))
	}
	if sc, ok := cfg.Sources["europepmc"]; ok {
		add("europepmc", NewEuropePMC(fetcher, sc.Tier))
	}
	if sc, ok := cfg.Sources["doaj"]; ok {
		add("doaj", NewDOAJ(fetcher, sc.Tier))
	}

	if cfg.Features.EnableLastResortMirrors {
		if sc, ok := cfg.Sources["mirror-a"]; ok && sc.Enabled {
			resolvers = append(resolvers, NewMirror(fetcher, "mirror-a", sc.Tier, sc.ProxyTemplate))
		}
		if sc, ok := cfg.Sources["mirror-b"]; ok && sc.Enabled {
			resolvers = append(resolvers, NewMirror(fetcher, "mirror-b", sc.Tier, sc.ProxyTemplate))
		}
	}

	return NewRegistry(resolvers)
}

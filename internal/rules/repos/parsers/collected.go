package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	logpkg "github.com/haukened/ai-rules/internal/rules/common/log"
	"github.com/haukened/ai-rules/internal/rules/common/utils"
	"github.com/haukened/ai-rules/internal/rules/domain"
)

// CollectedFile is the JSON shape of the collected-projects input.
type CollectedFile struct {
	Domains  []string           `json:"domains"`
	Keywords []string           `json:"keywords"`
	IPCIDRs  []string           `json:"ip_cidrs"`
	IPASNs   []string           `json:"ip_asns"`
	Projects []CollectedProject `json:"projects"`
}

// CollectedProject is one repository entry of the collected-projects file.
type CollectedProject struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Homepage string `json:"homepage"`
	Stars    int    `json:"stars"`
}

// excludedHomepageDomains are hosting apexes that say nothing about the
// project itself.
var excludedHomepageDomains = map[string]struct{}{
	"github.com": {},
	"github.io":  {},
	"localhost":  {},
}

// ParseCollected decodes a collected-projects document into entries.
//
// Behavior:
//   - domains become suffix rules, keywords keyword rules, ip_cidrs and ip_asns IP rules
//   - each project homepage is reduced to its registrable domain and added as a suffix
//   - domain values failing hostname grammar are skipped
func ParseCollected(r io.Reader, logger logpkg.Logger) ([]domain.Entry, error) {
	var f CollectedFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode collected projects: %w", err)
	}

	out := make([]domain.Entry, 0, len(f.Domains)+len(f.Keywords)+len(f.IPCIDRs)+len(f.IPASNs)+len(f.Projects))
	for _, d := range f.Domains {
		if e, ok := suffixEntry(d); ok {
			out = append(out, e)
		} else {
			logger.Debug(map[string]any{"domain": d}, "collected_skip_invalid_domain")
		}
	}
	out = appendPlain(out, domain.DomainKeyword, f.Keywords)
	out = appendPlain(out, domain.IPCIDR, f.IPCIDRs)
	out = appendPlain(out, domain.IPASN, f.IPASNs)

	for _, p := range f.Projects {
		apex := HomepageDomain(p.Homepage)
		if apex == "" {
			continue
		}
		if e, ok := suffixEntry(apex); ok {
			out = append(out, e)
			logger.Debug(map[string]any{"project": p.FullName, "domain": apex}, "collected_emit_homepage")
		}
	}
	return out, nil
}

// HomepageDomain extracts the registrable domain of a project homepage URL.
// It returns "" for empty or unparsable URLs and for generic hosting apexes
// and the sites beneath them (user.github.io).
func HomepageDomain(homepage string) string {
	homepage = strings.TrimSpace(homepage)
	if homepage == "" {
		return ""
	}
	if !strings.Contains(homepage, "://") {
		homepage = "https://" + homepage
	}
	u, err := url.Parse(homepage)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := utils.CanonicalDomain(u.Hostname())
	if !strings.Contains(host, ".") {
		return ""
	}
	apex := utils.RegistrableDomain(host)
	for excluded := range excludedHomepageDomains {
		if apex == excluded || strings.HasSuffix(apex, "."+excluded) {
			return ""
		}
	}
	return apex
}

func suffixEntry(value string) (domain.Entry, bool) {
	name, ok := hostValue(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "*.")))
	if !ok {
		return domain.Entry{}, false
	}
	return domain.Entry{Category: domain.DomainSuffix, Value: name}, true
}

func appendPlain(out []domain.Entry, c domain.Category, values []string) []domain.Entry {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, domain.Entry{Category: c, Value: v})
	}
	return out
}

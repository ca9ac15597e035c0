package llm

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Endpoint is an OpenAI-compatible base URL serving one model.
type Endpoint struct {
	Model   string
	BaseURL string
}

// ParseEndpoints parses a comma-separated model list. Entries are either
// "name:port", served at http://host:port/v1, or "name=URL".
func ParseEndpoints(host, list string) ([]Endpoint, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "0.0.0.0"
	}

	var out []Endpoint
	seen := map[string]bool{}
	for _, raw := range strings.Split(list, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		var ep Endpoint
		if name, rawURL, ok := strings.Cut(entry, "="); ok {
			u, err := url.Parse(strings.TrimSpace(rawURL))
			if err != nil || u.Scheme == "" || u.Host == "" {
				return nil, errors.Newf("invalid endpoint url for model %q: %q", name, rawURL)
			}
			ep = Endpoint{Model: strings.TrimSpace(name), BaseURL: strings.TrimRight(u.String(), "/")}
		} else {
			idx := strings.LastIndex(entry, ":")
			if idx <= 0 {
				return nil, errors.Newf("invalid model entry %q, want name:port or name=url", entry)
			}
			port, err := strconv.Atoi(entry[idx+1:])
			if err != nil || port <= 0 || port > 65535 {
				return nil, errors.Newf("invalid port in model entry %q", entry)
			}
			ep = Endpoint{
				Model:   strings.TrimSpace(entry[:idx]),
				BaseURL: "http://" + host + ":" + strconv.Itoa(port) + "/v1",
			}
		}
		if ep.Model == "" {
			return nil, errors.Newf("empty model name in entry %q", entry)
		}
		if seen[ep.Model] {
			return nil, errors.Newf("duplicate model %q", ep.Model)
		}
		seen[ep.Model] = true
		out = append(out, ep)
	}
	return out, nil
}

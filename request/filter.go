package request

import "strings"

// Filter narrows an already-fetched request list. Zero values mean "no
// restriction", the "全部" option of the list selectors.
type Filter struct {
	Status        Status
	RequestType   string
	ResearchScope string
	Keyword       string
}

// Apply returns the requests matching every set predicate. The keyword
// matches title or organization name, case-insensitively.
func (f Filter) Apply(requests []Request) []Request {
	result := make([]Request, 0, len(requests))
	for _, req := range requests {
		if f.matches(req) {
			result = append(result, req)
		}
	}
	return result
}

func (f Filter) matches(req Request) bool {
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if f.RequestType != "" && req.RequestType != f.RequestType {
		return false
	}
	if f.ResearchScope != "" && req.ResearchScope != f.ResearchScope {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(req.Title), kw) &&
			!strings.Contains(strings.ToLower(req.OrgName), kw) {
			return false
		}
	}
	return true
}

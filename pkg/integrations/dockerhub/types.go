package dockerhub

import herrors "github.com/matzehuels/hubtags/pkg/errors"

// page is one response from the tags listing endpoint. Fields other than
// next and results[].name are ignored.
type page struct {
	Next    *string `json:"next"`
	Results *[]tag  `json:"results"`
}

type tag struct {
	Name *string `json:"name"`
}

// continuation returns the raw next link, or "" when the stream ends.
func (p *page) continuation() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}

// names returns the tag names in page order.
func (p *page) names(url string) ([]string, error) {
	if p.Results == nil {
		return nil, herrors.New(herrors.ErrCodeInvalidResponse, "%s: page has no results", url)
	}
	out := make([]string, 0, len(*p.Results))
	for i, t := range *p.Results {
		if t.Name == nil {
			return nil, herrors.New(herrors.ErrCodeInvalidResponse, "%s: result %d has no name", url, i)
		}
		out = append(out, *t.Name)
	}
	return out, nil
}

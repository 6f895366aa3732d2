package opensky

import "encoding/json"

// SearchResults is one page of an aircraft search.
type SearchResults struct {
	Content       []SearchResult `json:"content"`
	Last          bool           `json:"last"`
	TotalElements int            `json:"totalElements"`
}

// SearchResult is a single aircraft matching a search term.
type SearchResult struct {
	ICAO24       string `json:"icao24"`
	Registration string `json:"registration"`
	Model        string `json:"model"`
	Operator     string `json:"operator"`
	Country      string `json:"country"`
}

// DecodeSearchResults decodes an aircraft search body.
func DecodeSearchResults(data []byte) (*SearchResults, error) {
	if isNull(data) {
		return nil, nil
	}
	var s SearchResults
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, asDecodeError("search", data, err)
	}
	if s.Content == nil {
		s.Content = []SearchResult{}
	}
	return &s, nil
}

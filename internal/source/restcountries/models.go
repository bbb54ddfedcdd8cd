package restcountries

import "encoding/json"

// RawCountry mirrors one element of the upstream country feed. All fields
// are optional in practice; normalization decides what is usable.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    Capital       `json:"capital"`
	Region     string        `json:"region"`
	Population *int64        `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

type RawCurrency struct {
	Code string `json:"code"`
}

// Capital tolerates both shapes the feed has shipped: a scalar string and a
// list of strings. Values holds the list form; a scalar becomes a one-element
// list.
type Capital struct {
	Values []string
}

func (c *Capital) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			c.Values = []string{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		c.Values = list
		return nil
	}

	// Unknown shape (null, object): treat as absent rather than failing the
	// whole feed.
	c.Values = nil
	return nil
}

// First returns the first capital, or "" when absent.
func (c Capital) First() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

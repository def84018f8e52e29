package sourcing

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
)

// Candidates is the working set of one run, ordered by discovery.
type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByLink(link string) *Candidate {
	for _, candidate := range c.Items {
		if candidate.Link == link {
			return candidate
		}
	}
	return nil
}

// Exclude removes candidates whose field matches any of the targets and
// returns the links of the removed entries.
func (c *Candidates) Exclude(name string, targets []string) []string {
	var excluded []string
	for _, target := range targets {
		for idx, candidate := range c.Items {
			if candidate.GetStringField(name) == target {
				c.RemoveByIndex(idx)
				excluded = append(excluded, candidate.Link)
				break
			}
		}
	}
	return excluded
}

// RemoveByIndex removes a candidate from the list by index. Discovery order
// is preserved: it is the tie-break for equal scores.
func (c *Candidates) RemoveByIndex(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}

// SortByScore orders candidates by score descending. The sort is stable so
// equal scores keep discovery order.
func (c *Candidates) SortByScore() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		return c.Items[i].Score() > c.Items[j].Score()
	})
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByDomain groups candidates by the host of their link.
func (c *Candidates) ReportByDomain() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, candidate := range c.Items {
		host := candidate.Host()
		if host == "" {
			host = "unknown"
		}
		entry := map[string]string{
			"name":  candidate.Name,
			"link":  candidate.Link,
			"score": strconv.Itoa(candidate.Score()),
		}
		if candidate.AI != nil {
			entry["reason"] = candidate.AI.Reason
			entry["flag"] = candidate.AI.Flag
		}
		report[host] = append(report[host], entry)
	}
	return report
}

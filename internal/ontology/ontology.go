// Package ontology consumes the controlled-vocabulary structure produced by
// the upstream linked-data pipeline. At build time its terms are folded into
// the text index as one synthetic pseudo-document; at query time relationship
// traversal expands raw terms into related subjects and objects.
package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/internal/tokenizer"
)

// Ontology is the read-only expansion structure: class and property label
// sets, entity labels, and predicate -> subject -> objects relationships.
type Ontology struct {
	Classes       map[string][]string            `json:"classes"`
	Properties    map[string][]string            `json:"properties"`
	Labels        map[string]string              `json:"labels"`
	Relationships map[string]map[string][]string `json:"relationships"`
}

// Load reads the ontology artifact (JSON) from path.
func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ontology %s: %w", path, err)
	}
	var o Ontology
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing ontology %s: %w", path, err)
	}
	return &o, nil
}

// Augment indexes every ontology term into the given synthetic text field
// against the reserved pseudo-document, each with count 1, and raises the
// index's document count by exactly one. Insertion is idempotent per term;
// Augment itself must run at most once per build.
func (o *Ontology) Augment(idx *index.Index, field string) {
	postings, ok := idx.Text[field]
	if !ok {
		postings = make(map[string]index.Posting)
		idx.Text[field] = postings
	}

	insert := func(text string) {
		for _, term := range tokenizer.Tokenize(text) {
			p, ok := postings[term]
			if !ok {
				p = make(index.Posting)
				postings[term] = p
			}
			p[index.OntologyDocID] = 1
		}
	}

	for _, labels := range o.Classes {
		for _, label := range labels {
			insert(label)
		}
	}
	for _, labels := range o.Properties {
		for _, label := range labels {
			insert(label)
		}
	}
	for _, label := range o.Labels {
		insert(label)
	}
	for _, subjects := range o.Relationships {
		for subject, objects := range subjects {
			insert(subject)
			for _, object := range objects {
				insert(object)
			}
		}
	}

	idx.DocCount++
}

// Expand scans every relationship's subject and object strings for a
// case-insensitive substring match of term and returns the union of the full
// subject and all object strings of every matching relationship. Unguarded
// substring matching is recall-oriented and costs O(total relationship
// entries) per term; acceptable for small-to-moderate ontologies.
func (o *Ontology) Expand(term string) []string {
	needle := strings.ToLower(term)
	if needle == "" {
		return nil
	}
	expansions := make(map[string]struct{})
	for _, subjects := range o.Relationships {
		for subject, objects := range subjects {
			matched := strings.Contains(strings.ToLower(subject), needle)
			if !matched {
				for _, object := range objects {
					if strings.Contains(strings.ToLower(object), needle) {
						matched = true
						break
					}
				}
			}
			if !matched {
				continue
			}
			expansions[subject] = struct{}{}
			for _, object := range objects {
				expansions[object] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(expansions))
	for e := range expansions {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode controls how a node's tag list is matched against a file's tags.
type Mode string

const (
	// ModeAll matches files carrying every tag in the node's list.
	ModeAll Mode = "all"
	// ModeAny matches files carrying at least one tag from the node's list.
	ModeAny Mode = "any"
)

// Connector joins a node's result to the accumulated chain result.
type Connector string

const (
	ConnectorAnd    Connector = "and"
	ConnectorOr     Connector = "or"
	ConnectorAndNot Connector = "and-not"
	// ConnectorNone is a UI placeholder for "no connector". It is part of the
	// wire vocabulary but must never appear inside a link.
	ConnectorNone Connector = "none"
)

// Node is a single tag-membership predicate. The ID is caller-assigned and
// only used for UI correlation; it carries no query semantics.
type Node struct {
	ID     string   `json:"id"`
	Mode   Mode     `json:"mode"`
	TagIDs []string `json:"tagIds"`
}

// Link attaches a node to the chain with a connector.
type Link struct {
	Connector Connector `json:"connector"`
	Node      Node      `json:"node"`
}

// Chain is a boolean tag query: evaluate Start, then fold each link's node
// into the result left to right.
type Chain struct {
	Start Node   `json:"start"`
	Links []Link `json:"links"`
}

// ValidationError reports every structural violation found in a chain, so the
// caller can surface all problems at once rather than one per round trip.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter chain: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the chain's structure. It returns a *ValidationError
// enumerating all violations, or nil if the chain is well formed.
func (c *Chain) Validate() error {
	var problems []string

	problems = appendNodeProblems(problems, "start", c.Start)

	for i, link := range c.Links {
		where := fmt.Sprintf("links[%d]", i)
		switch link.Connector {
		case ConnectorAnd, ConnectorOr, ConnectorAndNot:
		case ConnectorNone:
			problems = append(problems, where+`.connector: "none" is not allowed in a link`)
		default:
			problems = append(problems, fmt.Sprintf("%s.connector: unknown connector %q", where, link.Connector))
		}
		problems = appendNodeProblems(problems, where+".node", link.Node)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func appendNodeProblems(problems []string, where string, node Node) []string {
	if node.ID == "" {
		problems = append(problems, where+".id: must not be empty")
	}
	switch node.Mode {
	case ModeAll, ModeAny:
	default:
		problems = append(problems, fmt.Sprintf("%s.mode: unknown mode %q", where, node.Mode))
	}
	for i, tagID := range node.TagIDs {
		if tagID == "" {
			problems = append(problems, fmt.Sprintf("%s.tagIds[%d]: must not be empty", where, i))
		}
	}
	return problems
}

// numericTagIDs converts a node's tag-id strings to integers, silently
// dropping anything that does not parse. Both evaluation strategies share
// this helper so that lenient parsing cannot make them diverge: a node whose
// list is empty after filtering matches no files under either strategy.
func numericTagIDs(node Node) []int64 {
	ids := make([]int64, 0, len(node.TagIDs))
	for _, raw := range node.TagIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

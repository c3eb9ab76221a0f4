package filter

import (
	"fmt"
	"strings"
)

// Compile translates the chain into a single SQL statement over the
// file_tags membership table. The statement yields one column, file_id,
// containing exactly the files Evaluate would select for the same relation.
//
// Each node becomes a CTE (node_0 for the start, node_1..node_n for links);
// the final SELECT combines them with INTERSECT/UNION/EXCEPT. SQLite applies
// compound operators left to right with no precedence, which is exactly the
// in-memory fold, so no grouping is needed (and parenthesized compound
// operands are a syntax error in its grammar).
//
// Tag ids that do not parse as integers are dropped rather than rejected, so
// a caller that skips Validate can get a silently narrower result. Upstream
// validation is expected to have run first.
func Compile(chain Chain) string {
	ctes, combined := CompileParts(chain)
	return fmt.Sprintf("WITH %s\n%s", ctes, combined)
}

// CompileParts returns the chain's CTE definitions and the combining SELECT
// separately, for callers that embed the selection in a larger statement.
func CompileParts(chain Chain) (cteList, combined string) {
	ctes := make([]string, 0, len(chain.Links)+1)
	ctes = append(ctes, nodeCTE(chain.Start, 0))
	for i, link := range chain.Links {
		ctes = append(ctes, nodeCTE(link.Node, i+1))
	}

	combined = "SELECT file_id FROM node_0"
	for i, link := range chain.Links {
		var setOp string
		switch link.Connector {
		case ConnectorAnd:
			setOp = "INTERSECT"
		case ConnectorOr:
			setOp = "UNION"
		case ConnectorAndNot:
			setOp = "EXCEPT"
		default:
			// Validate rejects anything else; an unvalidated connector
			// compiles to the narrowing operator rather than panicking.
			setOp = "EXCEPT"
		}
		combined = fmt.Sprintf("%s %s SELECT file_id FROM node_%d", combined, setOp, i+1)
	}

	return strings.Join(ctes, ",\n"), combined
}

func nodeCTE(node Node, idx int) string {
	tagIDs := numericTagIDs(node)
	if len(tagIDs) == 0 {
		return fmt.Sprintf("node_%d AS (SELECT 0 AS file_id WHERE 1=0)", idx)
	}

	alias := fmt.Sprintf("ft%d", idx)
	inList := make([]string, len(tagIDs))
	for i, id := range tagIDs {
		inList[i] = fmt.Sprintf("%d", id)
	}

	base := fmt.Sprintf("SELECT %s.file_id AS file_id FROM file_tags %s WHERE %s.tag_id IN (%s)",
		alias, alias, alias, strings.Join(inList, ", "))

	if node.Mode == ModeAll {
		// A file qualifies only when it hits every listed tag; the distinct
		// count is the relational form of the superset test.
		return fmt.Sprintf("node_%d AS (%s GROUP BY %s.file_id HAVING COUNT(DISTINCT %s.tag_id) = %d)",
			idx, base, alias, alias, len(tagIDs))
	}
	return fmt.Sprintf("node_%d AS (%s GROUP BY %s.file_id)", idx, base, alias)
}

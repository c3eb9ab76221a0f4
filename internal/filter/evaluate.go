package filter

// Membership maps a file id to the set of tag ids the file carries.
type Membership map[int64]map[int64]struct{}

// Evaluate runs the chain against an in-memory membership relation and
// returns the matching file-id set. It is a pure function: the same
// membership and chain always produce the same result.
func Evaluate(membership Membership, chain Chain) map[int64]struct{} {
	result := evaluateNode(membership, chain.Start)
	for _, link := range chain.Links {
		next := evaluateNode(membership, link.Node)
		result = combine(result, next, link.Connector)
	}
	return result
}

func evaluateNode(membership Membership, node Node) map[int64]struct{} {
	result := make(map[int64]struct{})
	tagIDs := numericTagIDs(node)
	if len(tagIDs) == 0 {
		// An empty tag list matches nothing, regardless of mode.
		return result
	}

	for fileID, tags := range membership {
		if node.Mode == ModeAny {
			for _, tagID := range tagIDs {
				if _, ok := tags[tagID]; ok {
					result[fileID] = struct{}{}
					break
				}
			}
			continue
		}

		matched := true
		for _, tagID := range tagIDs {
			if _, ok := tags[tagID]; !ok {
				matched = false
				break
			}
		}
		if matched {
			result[fileID] = struct{}{}
		}
	}
	return result
}

func combine(acc, next map[int64]struct{}, connector Connector) map[int64]struct{} {
	merged := make(map[int64]struct{})
	switch connector {
	case ConnectorAnd:
		for id := range acc {
			if _, ok := next[id]; ok {
				merged[id] = struct{}{}
			}
		}
	case ConnectorOr:
		for id := range acc {
			merged[id] = struct{}{}
		}
		for id := range next {
			merged[id] = struct{}{}
		}
	case ConnectorAndNot:
		for id := range acc {
			if _, ok := next[id]; !ok {
				merged[id] = struct{}{}
			}
		}
	}
	return merged
}

package preparer

type State int

const (
	StateInitial State = iota
	StateRootFetched
	StateStylesheetsDiscovered
	StateLinkedResourcesResolved
	StateDocumentRewritten
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRootFetched:
		return "root-fetched"
	case StateStylesheetsDiscovered:
		return "stylesheets-discovered"
	case StateLinkedResourcesResolved:
		return "linked-resources-resolved"
	case StateDocumentRewritten:
		return "document-rewritten"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

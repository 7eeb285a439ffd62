package schema

// WorkflowState is the orchestrator's per-request state, threaded through
// every node of the query-processing graph (§4.1). It belongs exclusively
// to the active request: no shared mutable access across requests.
type WorkflowState struct {
	Query                    string
	Intent                   string
	ClassificationConfidence float64
	ExtractedFilters         map[string]any
	ExtractedEntities        []string
	AttachedDocuments        []string
	SessionContext           *Context
	UserPreferences          map[string]any
	SearchResults            []Document
	GraphContext             *GraphExpansion
	Response                 string
	Confidence               float64
	Error                    string
	Steps                    []Step
	NextAction               string
}

// Step records one completed stage of orchestration, surfaced to callers as
// an EventStep.
type Step struct {
	Stage   string
	Action  string
	Details map[string]any
	Degraded bool
}

// Context is the memory coordinator's load_context result: recent turns,
// similar past episodes, applicable procedural preferences, and user topic
// interests (§4.4).
type Context struct {
	RecentTurns      []Turn
	Episodes         []Episode
	Preferences      []ProceduralPattern
	TopicPreferences map[string]float64
}

// GraphExpansion is the entity graph expansion module's result (§4.5):
// expand(entity_names, max_hops) -> {original, expanded, related_document_ids, paths}.
type GraphExpansion struct {
	Original           []string
	Expanded           []string
	RelatedDocumentIDs []string
	Paths              [][]string
}

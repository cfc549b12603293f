package mode

// Mode is the retrieval path chosen for a query.
type Mode string

// Search mode constants.
const (
	// Filter resolves the query against structured metadata only.
	Filter Mode = "filter"
	// Semantic runs hybrid lexical and vector retrieval.
	Semantic Mode = "semantic"
	// Similar asks for grants resembling a known grant.
	Similar Mode = "similar"
)

// Tool names exposed to the tool-calling classifier.
const (
	ToolFilterByKeyword = "filter_grants_by_keyword"
	ToolSearchWithRAG   = "search_grants_with_rag"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Filter || m == Semantic || m == Similar
}

// Decision is the outcome of classifying a query.
type Decision struct {
	Mode     Mode
	Keyword  string
	Category string
	Agency   string
	// Tool is the routing tool name, empty for the similarity path.
	Tool string
}

// FilterDecision builds a structured filter decision for a keyword.
func FilterDecision(keyword string) Decision {
	return Decision{Mode: Filter, Keyword: keyword, Tool: ToolFilterByKeyword}
}

// SemanticDecision builds a semantic retrieval decision.
func SemanticDecision(category, agency string) Decision {
	return Decision{Mode: Semantic, Category: category, Agency: agency, Tool: ToolSearchWithRAG}
}

// ToolCall is the tool a chat model chose for a query with its raw JSON arguments.
type ToolCall struct {
	Name      string
	Arguments string
}

package domain

// Record is one embedded snippet: the text that goes into prompts, its
// embedding vector and, when provenance is tracked, the file it came from.
type Record struct {
	Text          string
	Embedding     []float64
	SourceLocator string // empty when provenance is not tracked
}

// Store is an ordered, append-only table of records sharing one embedding
// dimensionality. Record order is the tie-break for equal relatedness.
type Store struct {
	Model   string // embedding model that produced the vectors, if known
	Records []Record
}

// NewStore creates an empty store for the given embedding model.
func NewStore(model string) *Store {
	return &Store{Model: model}
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Dimension returns the shared embedding dimensionality, or 0 for an empty store.
func (s *Store) Dimension() int {
	if s.Len() == 0 {
		return 0
	}
	return len(s.Records[0].Embedding)
}

// Append adds a record after checking the store invariants.
func (s *Store) Append(r Record) error {
	if r.Text == "" {
		return ErrEmptyText
	}
	if len(r.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if dim := s.Dimension(); dim != 0 && dim != len(r.Embedding) {
		return &DimensionMismatchError{Expected: dim, Got: len(r.Embedding), Index: len(s.Records)}
	}
	s.Records = append(s.Records, r)
	return nil
}

// Validate checks that every record honors the store invariants.
func (s *Store) Validate() error {
	dim := s.Dimension()
	for i, r := range s.Records {
		if r.Text == "" {
			return ErrEmptyText
		}
		if len(r.Embedding) != dim {
			return &DimensionMismatchError{Expected: dim, Got: len(r.Embedding), Index: i}
		}
	}
	return nil
}

// RankedResult is a record scored against a query.
type RankedResult struct {
	Text          string  `json:"text"`
	Relatedness   float64 `json:"relatedness"`
	SourceLocator string  `json:"source_locator,omitempty"`
}

// Role tags a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged segment of a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PromptResult is the output of the context budgeter.
type PromptResult struct {
	Prompt     string `json:"prompt"`
	Included   int    `json:"included"`
	Tokens     int    `json:"tokens"`
	Budget     int    `json:"budget"`
	OverBudget bool   `json:"over_budget"`
}

package weaviate

// Meta describes a Weaviate server as reported by /v1/meta.
type Meta struct {
	Hostname string                 `json:"hostname"`
	Version  string                 `json:"version"`
	Modules  map[string]interface{} `json:"modules"`
}

// Class is a collection definition as exchanged with /v1/schema.
//
// Vectorizer module settings live under ModuleConfig keyed by module name
// ("text2vec-openai", "generative-openai"), matching the wire format.
type Class struct {
	Class        string                 `json:"class"`
	Description  string                 `json:"description,omitempty"`
	Vectorizer   string                 `json:"vectorizer,omitempty"`
	ModuleConfig map[string]interface{} `json:"moduleConfig,omitempty"`
	Properties   []Property             `json:"properties,omitempty"`
}

// Property is one property of a class.
type Property struct {
	Name         string                 `json:"name"`
	DataType     []string               `json:"dataType"`
	Description  string                 `json:"description,omitempty"`
	ModuleConfig map[string]interface{} `json:"moduleConfig,omitempty"`
}

// Object is a data object sent to /v1/batch/objects.
type Object struct {
	ID         string                 `json:"id,omitempty"`
	Class      string                 `json:"class"`
	Properties map[string]interface{} `json:"properties"`
}

// batchStatusSuccess is the per-object status Weaviate reports for an
// object that was stored.
const batchStatusSuccess = "SUCCESS"

// BatchResult reports the outcome of one object in a batch request.
type BatchResult struct {
	ID     string
	Status string
	Errors []string
}

// Succeeded reports whether the object was stored.
func (r BatchResult) Succeeded() bool {
	return r.Status == batchStatusSuccess
}

// batchResponseItem mirrors one element of the /v1/batch/objects response.
type batchResponseItem struct {
	ID     string `json:"id"`
	Result struct {
		Status string `json:"status"`
		Errors struct {
			Error []struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"errors"`
	} `json:"result"`
}

// SearchHit is one object returned by a nearText query.
type SearchHit struct {
	// ID is the object UUID from _additional.id.
	ID string

	// Certainty is the match certainty from _additional.certainty,
	// in [0, 1].
	Certainty float64

	// Fields holds the requested properties by name.
	Fields map[string]interface{}

	// Generated carries _additional.generate.singleResult when the query
	// included a generative prompt.
	Generated string

	// GenerateError carries _additional.generate.error when the
	// generative module failed for this hit.
	GenerateError string
}

// graphqlResponse mirrors the /v1/graphql response envelope.
type graphqlResponse struct {
	Data struct {
		Get map[string][]map[string]interface{} `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

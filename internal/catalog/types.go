// Package catalog implements the read-only Node Catalog (C1): lookup,
// full-text + fuzzy search, and schema access over the embedded
// node-definition snapshot.
package catalog

// NodeDefinition describes one known node type.
type NodeDefinition struct {
	NodeType     string           `json:"nodeType"`
	DisplayName  string           `json:"displayName"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Package      string           `json:"package"`
	IsTrigger    bool             `json:"isTrigger"`
	IsWebhook    bool             `json:"isWebhook"`
	IsAITool     bool             `json:"isAITool"`
	IsVersioned  bool             `json:"isVersioned"`
	Version      float64          `json:"version"`
	Properties   []PropertySchema `json:"properties"`
	Operations   []Operation      `json:"operations"`
	Credentials  []CredentialSpec `json:"credentials"`
}

// Operation is one action a node supports (e.g. resource/operation pairs).
type Operation struct {
	Name        string `json:"name"`
	Resource    string `json:"resource,omitempty"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// CredentialSpec names a credential type a node can use.
type CredentialSpec struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// PropertySchema describes one node parameter.
type PropertySchema struct {
	Name          string           `json:"name"`
	DisplayName   string           `json:"displayName"`
	Type          PropertyType     `json:"type"`
	Required      bool             `json:"required"`
	Default       any              `json:"default,omitempty"`
	Options       []PropertyOption `json:"options,omitempty"`
	DisplayShow   map[string][]any `json:"displayShow,omitempty"`
	DisplayHide   map[string][]any `json:"displayHide,omitempty"`
	Description   string           `json:"description,omitempty"`
}

// PropertyType is the closed set of property primitive/compound kinds.
type PropertyType string

const (
	PropString          PropertyType = "string"
	PropNumber          PropertyType = "number"
	PropBoolean         PropertyType = "boolean"
	PropOptions         PropertyType = "options"
	PropMultiOptions    PropertyType = "multiOptions"
	PropCollection      PropertyType = "collection"
	PropFixedCollection PropertyType = "fixedCollection"
	PropResourceLocator PropertyType = "resourceLocator"
	PropJSON            PropertyType = "json"
)

// PropertyOption is one allowed value for an options/multiOptions property.
type PropertyOption struct {
	Value       any    `json:"value"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoryStat summarizes how many node types exist in a category.
type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// SearchMode selects the matching strategy for Search.
type SearchMode string

const (
	SearchOR    SearchMode = "OR"
	SearchAND   SearchMode = "AND"
	SearchFuzzy SearchMode = "FUZZY"
)

// SearchResult is one ranked match from Search.
type SearchResult struct {
	Definition NodeDefinition `json:"definition"`
	Score      float64        `json:"score"`
}

// PropertyMatch is one result from SearchProperties.
type PropertyMatch struct {
	Property PropertySchema `json:"property"`
	Score    float64        `json:"score"`
}

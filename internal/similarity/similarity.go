// Package similarity implements the Similarity Engine (C7): suggests
// known node types close to an unrecognized one.
package similarity

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggestion is a single candidate match for an unknown node type.
type Suggestion struct {
	NodeType   string
	Confidence float64
	Reason     string
}

// IsAutoFixable reports whether a suggestion is confident enough for the
// Auto-Fix Engine to apply it without user review.
func IsAutoFixable(s Suggestion) bool { return s.Confidence >= 0.90 }

// commonMistakes maps well-known typos/short-forms straight to their
// canonical node type, boosted regardless of edit distance.
var commonMistakes = map[string]string{
	"webhok":        "nodes-base.webhook",
	"webook":        "nodes-base.webhook",
	"httprequest":   "nodes-base.httpRequest",
	"http":          "nodes-base.httpRequest",
	"switch":        "nodes-base.switch",
	"if":            "nodes-base.if",
	"respondwebhok": "nodes-base.respondToWebhook",
	"manualtrigger": "nodes-base.manualTrigger",
	"codenode":      "nodes-base.code",
}

// Candidate is one known type the engine compares an unknown type against;
// callers copy NodeType/DisplayName out of catalog.NodeDefinition, so this
// package does not import catalog.
type Candidate struct {
	NodeType    string
	DisplayName string
}

// Suggest returns up to topK candidates closest to unknownType, ranked by
// confidence descending.
func Suggest(unknownType string, candidates []Candidate, topK int) []Suggestion {
	lowerUnknown := strings.ToLower(stripPackagePrefix(unknownType))
	var out []Suggestion
	for _, c := range candidates {
		lowerType := strings.ToLower(stripPackagePrefix(c.NodeType))
		lowerDisplay := strings.ToLower(c.DisplayName)

		conf := confidenceOf(lowerUnknown, lowerType)
		if d := confidenceOf(lowerUnknown, lowerDisplay); d > conf {
			conf = d
		}
		if mistake, ok := commonMistakes[lowerUnknown]; ok && strings.EqualFold(mistake, c.NodeType) {
			conf += 0.25
		}
		if strings.Contains(lowerType, lowerUnknown) || strings.Contains(lowerUnknown, lowerType) {
			conf += 0.15
		}
		if conf > 1 {
			conf = 1
		}
		if conf <= 0 {
			continue
		}
		out = append(out, Suggestion{
			NodeType:   c.NodeType,
			Confidence: conf,
			Reason:     reasonFor(lowerUnknown, lowerType),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func confidenceOf(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	conf := 1 - float64(dist)/float64(maxLen)
	if conf < 0 {
		return 0
	}
	return conf
}

func reasonFor(unknown, candidate string) string {
	if unknown == candidate {
		return "exact match after normalization"
	}
	return "close edit distance to a known node type"
}

func stripPackagePrefix(nodeType string) string {
	if i := strings.LastIndex(nodeType, "."); i >= 0 {
		return nodeType[i+1:]
	}
	return nodeType
}

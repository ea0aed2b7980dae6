package usecase

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"coderag/internal/domain"
)

// EvalCase is one labeled query: the files a good ranking should surface.
type EvalCase struct {
	Query    string   `yaml:"query" json:"query"`
	Relevant []string `yaml:"relevant" json:"relevant"`
}

// EvalSet is a YAML file of labeled queries.
type EvalSet struct {
	Cases []EvalCase `yaml:"cases" json:"cases"`
}

// LoadEvalSet reads an evaluation set from path.
func LoadEvalSet(path string) (*EvalSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set EvalSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse eval set %s: %w", path, err)
	}
	for i, c := range set.Cases {
		if strings.TrimSpace(c.Query) == "" {
			return nil, fmt.Errorf("eval set %s: case %d has no query", path, i+1)
		}
	}
	return &set, nil
}

// EvalResult holds retrieval quality for one query.
type EvalResult struct {
	Query     string   `json:"query"`
	Retrieved []string `json:"retrieved"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	MRR       float64  `json:"mrr"`
	NDCG      float64  `json:"ndcg"`
}

// EvalSummary averages the per-query results.
type EvalSummary struct {
	K             int          `json:"k"`
	Results       []EvalResult `json:"results"`
	MeanPrecision float64      `json:"mean_precision"`
	MeanRecall    float64      `json:"mean_recall"`
	MeanMRR       float64      `json:"mean_mrr"`
	MeanNDCG      float64      `json:"mean_ndcg"`
}

// Evaluate ranks every case against st and scores the top k source locators.
func (r *Ranker) Evaluate(ctx context.Context, st *domain.Store, set *EvalSet, k int) (*EvalSummary, error) {
	summary := &EvalSummary{K: k}
	for _, c := range set.Cases {
		ranked, err := r.Rank(ctx, c.Query, st, k)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", c.Query, err)
		}

		retrieved := make([]string, len(ranked))
		for i, res := range ranked {
			retrieved[i] = res.SourceLocator
		}

		res := EvalResult{
			Query:     c.Query,
			Retrieved: retrieved,
			Precision: PrecisionAtK(retrieved, c.Relevant),
			Recall:    RecallAtK(retrieved, c.Relevant),
			MRR:       ReciprocalRank(retrieved, c.Relevant),
			NDCG:      BinaryNDCG(retrieved, c.Relevant),
		}
		summary.Results = append(summary.Results, res)
		summary.MeanPrecision += res.Precision
		summary.MeanRecall += res.Recall
		summary.MeanMRR += res.MRR
		summary.MeanNDCG += res.NDCG
	}

	if n := float64(len(summary.Results)); n > 0 {
		summary.MeanPrecision /= n
		summary.MeanRecall /= n
		summary.MeanMRR /= n
		summary.MeanNDCG /= n
	}
	return summary, nil
}

// relevantSet matches a locator by its full path or its base name, so eval
// files can list "auth.py" for "src/auth.py".
type relevantSet map[string]bool

func newRelevantSet(relevant []string) relevantSet {
	set := make(relevantSet, len(relevant))
	for _, r := range relevant {
		set[filepath.Clean(r)] = true
	}
	return set
}

func (s relevantSet) has(locator string) bool {
	if locator == "" {
		return false
	}
	return s[filepath.Clean(locator)] || s[filepath.Base(locator)]
}

func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	set := newRelevantSet(relevant)
	hits := 0
	for _, r := range retrieved {
		if set.has(r) {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}

// RecallAtK is the share of relevant entries matched by at least one
// retrieved locator. Several locators sharing a base name count once.
func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	found := make(map[string]bool, len(relevant))
	for _, r := range relevant {
		found[filepath.Clean(r)] = false
	}
	for _, loc := range retrieved {
		if loc == "" {
			continue
		}
		loc = filepath.Clean(loc)
		for _, key := range []string{loc, filepath.Base(loc)} {
			if _, ok := found[key]; ok {
				found[key] = true
			}
		}
	}

	hits := 0
	for _, ok := range found {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(found))
}

// ReciprocalRank is 1/rank of the first relevant result, 0 if none.
func ReciprocalRank(retrieved, relevant []string) float64 {
	set := newRelevantSet(relevant)
	for i, r := range retrieved {
		if set.has(r) {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// BinaryNDCG scores a ranking where every relevant result has gain 1.
func BinaryNDCG(retrieved, relevant []string) float64 {
	set := newRelevantSet(relevant)
	scores := make([]float64, len(retrieved))
	for i, r := range retrieved {
		if set.has(r) {
			scores[i] = 1
		}
	}

	idealHits := len(relevant)
	if idealHits > len(retrieved) {
		idealHits = len(retrieved)
	}
	ideal := make([]float64, idealHits)
	for i := range ideal {
		ideal[i] = 1
	}
	return NDCG(scores, ideal)
}

func NDCG(scores, ideal []float64) float64 {
	dcg := calculateDCG(scores)
	idcg := calculateDCG(ideal)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func calculateDCG(scores []float64) float64 {
	dcg := 0.0
	for i, score := range scores {
		dcg += score / math.Log2(float64(i+2))
	}
	return dcg
}

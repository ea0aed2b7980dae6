package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"coderag/internal/adapter/embedding"
)

func TestPrecisionAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantP     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_retrieved", []string{}, []string{"a", "b"}, 0.0},
		{"base_name", []string{"src/a.py", "src/x.py"}, []string{"a.py"}, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := PrecisionAtK(tc.retrieved, tc.relevant)
			if diff := p - tc.wantP; diff > 0.01 || diff < -0.01 {
				t.Errorf("precision = %.3f, want %.3f", p, tc.wantP)
			}
		})
	}
}

func TestRecallAtK(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantR     float64
	}{
		{"perfect", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "b", "x"}, []string{"a", "b", "c"}, 0.666},
		{"none", []string{"x", "y", "z"}, []string{"a", "b", "c"}, 0.0},
		{"empty_relevant", []string{"a", "b"}, []string{}, 0.0},
		{"shared_base_name", []string{"src/a.py", "lib/a.py"}, []string{"a.py", "b.py"}, 0.5},
		{"full_path", []string{"src/a.py", "x.py"}, []string{"src/a.py", "b.py"}, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := RecallAtK(tc.retrieved, tc.relevant)
			if diff := r - tc.wantR; diff > 0.01 || diff < -0.01 {
				t.Errorf("recall = %.3f, want %.3f", r, tc.wantR)
			}
		})
	}
}

func TestReciprocalRank(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		wantMRR   float64
	}{
		{"first", []string{"a", "b", "c"}, []string{"a"}, 1.0},
		{"second", []string{"x", "a", "c"}, []string{"a"}, 0.5},
		{"third", []string{"x", "y", "a"}, []string{"a"}, 0.333},
		{"missing", []string{"x", "y", "z"}, []string{"a"}, 0.0},
		{"any_relevant", []string{"x", "c", "a"}, []string{"a", "c"}, 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mrr := ReciprocalRank(tc.retrieved, tc.relevant)
			if diff := mrr - tc.wantMRR; diff > 0.01 || diff < -0.01 {
				t.Errorf("MRR = %.3f, want %.3f", mrr, tc.wantMRR)
			}
		})
	}
}

func TestNDCG(t *testing.T) {
	cases := []struct {
		name     string
		scores   []float64
		ideal    []float64
		wantNDCG float64
	}{
		{"perfect", []float64{3, 2, 1}, []float64{3, 2, 1}, 1.0},
		{"reversed", []float64{1, 2, 3}, []float64{3, 2, 1}, 0.790},
		{"zeros", []float64{0, 0, 0}, []float64{3, 2, 1}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ndcg := NDCG(tc.scores, tc.ideal)
			if diff := ndcg - tc.wantNDCG; diff > 0.01 || diff < -0.01 {
				t.Errorf("NDCG = %.3f, want %.3f", ndcg, tc.wantNDCG)
			}
		})
	}
}

func TestBinaryNDCG(t *testing.T) {
	if got := BinaryNDCG([]string{"a", "x"}, []string{"a"}); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := BinaryNDCG([]string{"x", "y"}, []string{"a"}); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestEvaluate(t *testing.T) {
	emb := embedding.NewMockEmbedder(2)
	emb.SetVector("add numbers", []float64{1, 0})
	emb.SetVector("subtract numbers", []float64{0, 1})

	st := storeOf([]float64{1, 0}, []float64{0, 1})
	set := &EvalSet{Cases: []EvalCase{
		{Query: "add numbers", Relevant: []string{"f0.py"}},
		{Query: "subtract numbers", Relevant: []string{"f0.py"}},
	}}

	summary, err := NewRanker(emb).Evaluate(context.Background(), st, set, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	if summary.Results[0].MRR != 1 || summary.Results[1].MRR != 0 {
		t.Errorf("unexpected MRR: %v, %v", summary.Results[0].MRR, summary.Results[1].MRR)
	}
	if summary.MeanPrecision != 0.5 {
		t.Errorf("expected mean precision 0.5, got %v", summary.MeanPrecision)
	}
}

func TestLoadEvalSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.yaml")
	content := `
cases:
  - query: where is the config loaded?
    relevant: [config.py]
  - query: how are users authenticated?
    relevant: [auth.py, session.py]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadEvalSet(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Cases) != 2 || len(set.Cases[1].Relevant) != 2 {
		t.Errorf("unexpected eval set: %+v", set)
	}

	if err := os.WriteFile(path, []byte("cases:\n  - relevant: [a.py]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEvalSet(path); err == nil {
		t.Error("expected error for case without query")
	}
}

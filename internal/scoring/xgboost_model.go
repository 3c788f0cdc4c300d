package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

const (
	objectiveBinaryLogistic = "binary:logistic"
	objectiveRegLogistic    = "reg:logistic"
	objectiveBinaryLogitRaw = "binary:logitraw"
	leafMarker              = -1
)

type xgbDocument struct {
	Learner struct {
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int             `json:"left_children"`
	RightChildren   []int             `json:"right_children"`
	SplitIndices    []int             `json:"split_indices"`
	SplitConditions []float64         `json:"split_conditions"`
	DefaultLeft     []json.RawMessage `json:"default_left"`
}

// treeNode holds split conditions and leaf values in single precision, as XGBoost stores them.
type treeNode struct {
	left, right int
	feature     int
	threshold   float32
	defaultLeft bool
}

// XGBoostModel evaluates a gradient-boosted tree ensemble exported in XGBoost JSON format.
type XGBoostModel struct {
	trees      [][]treeNode
	baseMargin float32
	numFeature int
	objective  string
}

// LoadModel reads an XGBoost JSON model artifact from path.
func LoadModel(path string) (*XGBoostModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrModelLoad, err)
	}

	return ParseModel(raw)
}

// ParseModel builds a model from the bytes of an XGBoost JSON artifact.
func ParseModel(raw []byte) (*XGBoostModel, error) {
	var doc xgbDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse model json: %v", model.ErrModelLoad, err)
	}

	learner := doc.Learner

	if name := learner.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("%w: unsupported booster %q", model.ErrModelLoad, name)
	}

	switch learner.Objective.Name {
	case objectiveBinaryLogistic, objectiveRegLogistic, objectiveBinaryLogitRaw:
	default:
		return nil, fmt.Errorf("%w: unsupported objective %q", model.ErrModelLoad, learner.Objective.Name)
	}

	if n := learner.LearnerModelParam.NumClass; n != "" && n != "0" && n != "1" {
		return nil, fmt.Errorf("%w: multi-class models are not supported", model.ErrModelLoad)
	}

	baseScore, err := parseXGBFloat(learner.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base_score: %v", model.ErrModelLoad, err)
	}

	numFeature := 0
	if s := learner.LearnerModelParam.NumFeature; s != "" {
		numFeature, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid num_feature: %v", model.ErrModelLoad, err)
		}
	}

	m := &XGBoostModel{
		numFeature: numFeature,
		objective:  learner.Objective.Name,
	}

	if learner.Objective.Name == objectiveBinaryLogitRaw {
		m.baseMargin = float32(baseScore)
	} else {
		if baseScore <= 0 || baseScore >= 1 {
			return nil, fmt.Errorf("%w: base_score %v outside (0, 1)", model.ErrModelLoad, baseScore)
		}
		m.baseMargin = float32(math.Log(baseScore / (1 - baseScore)))
	}

	for i, tree := range learner.GradientBooster.Model.Trees {
		nodes, err := tree.compile()
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", model.ErrModelLoad, i, err)
		}
		m.trees = append(m.trees, nodes)
	}

	if len(m.trees) == 0 {
		return nil, fmt.Errorf("%w: model has no trees", model.ErrModelLoad)
	}

	return m, nil
}

// Score returns the fraud probability for the record. Features are narrowed to float32
// and the margin is accumulated in float32, as in the XGBoost predictor.
func (m *XGBoostModel) Score(record *model.TransactionRecord) (float64, error) {
	return m.predict(record.Features[:])
}

// NumFeature returns the feature width declared by the artifact, or 0 if undeclared.
func (m *XGBoostModel) NumFeature() int {
	return m.numFeature
}

func (m *XGBoostModel) predict(features []float64) (float64, error) {
	if m.numFeature > 0 && len(features) != m.numFeature {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", model.ErrScoring, m.numFeature, len(features))
	}

	margin := m.baseMargin
	for i, tree := range m.trees {
		leaf, err := evalTree(tree, features)
		if err != nil {
			return 0, fmt.Errorf("%w: tree %d: %v", model.ErrScoring, i, err)
		}
		margin += leaf
	}

	score := float64(float32(1 / (1 + math.Exp(-float64(margin)))))
	if math.IsNaN(score) {
		return 0, fmt.Errorf("%w: non-finite score", model.ErrScoring)
	}

	return score, nil
}

func evalTree(nodes []treeNode, features []float64) (float32, error) {
	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		node := nodes[idx]
		if node.left == leafMarker {
			return node.threshold, nil
		}

		if node.feature >= len(features) {
			return 0, fmt.Errorf("split feature %d outside vector of %d", node.feature, len(features))
		}

		v := float32(features[node.feature])
		switch {
		case math.IsNaN(float64(v)):
			if node.defaultLeft {
				idx = node.left
			} else {
				idx = node.right
			}
		case v < node.threshold:
			idx = node.left
		default:
			idx = node.right
		}
	}

	return 0, fmt.Errorf("tree walk did not reach a leaf")
}

func (t *xgbTree) compile() ([]treeNode, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return nil, fmt.Errorf("empty tree")
	}

	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return nil, fmt.Errorf("inconsistent node arrays")
	}

	if len(t.DefaultLeft) != 0 && len(t.DefaultLeft) != n {
		return nil, fmt.Errorf("inconsistent default_left array")
	}

	nodes := make([]treeNode, n)
	for i := range n {
		node := treeNode{
			left:      t.LeftChildren[i],
			right:     t.RightChildren[i],
			feature:   t.SplitIndices[i],
			threshold: float32(t.SplitConditions[i]),
		}

		if node.left != leafMarker {
			if node.left <= 0 || node.left >= n || node.right <= 0 || node.right >= n {
				return nil, fmt.Errorf("node %d has child outside tree", i)
			}
			if node.feature < 0 {
				return nil, fmt.Errorf("node %d has negative split index", i)
			}
		}

		if len(t.DefaultLeft) != 0 {
			dl, err := parseXGBBool(t.DefaultLeft[i])
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			node.defaultLeft = dl
		}

		nodes[i] = node
	}

	return nodes, nil
}

// parseXGBFloat accepts both "5E-1" and the bracketed "[5E-1]" form written by newer releases.
func parseXGBFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return 0.5, nil
	}

	return strconv.ParseFloat(s, 64)
}

func parseXGBBool(raw json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid default_left value %s", raw)
	}
}

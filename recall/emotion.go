package recall

import (
	"context"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pipeline"
	"github.com/rushteam/moodrec/pkg/utils"
)

// EmotionRecall 是情绪向量召回：对书库中每一本书计算与用户情绪画像的余弦相似度。
//
// 书库规模为数千行，这里做全量暴力计算，不截断 TopK；
// 截断与配比交给 rerank.Allocator。
type EmotionRecall struct {
	// Corpus 为空时使用 rctx.Corpus
	Corpus *core.Corpus
}

var _ pipeline.Node = (*EmotionRecall)(nil)

func (r *EmotionRecall) Name() string        { return "recall.emotion" }
func (r *EmotionRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 忽略上游 items，按书库行序为每本书输出一个候选项，Score 为相似度。
func (r *EmotionRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	corpus := r.Corpus
	if corpus == nil && rctx != nil {
		corpus = rctx.Corpus
	}
	if corpus.Len() == 0 {
		return []*core.Item{}, nil
	}

	var profile core.EmotionProfile
	if rctx != nil {
		profile = rctx.Profile
	}
	user := profile.Vector(corpus.Columns)
	scores, err := SimilarityChecked(corpus.Matrix, user)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(corpus.Books))
	for i := range corpus.Books {
		it := core.NewBookItem(&corpus.Books[i])
		it.Score = scores[i]
		it.PutLabel("recall_source", utils.Label{Value: "emotion", Source: utils.SourceRecall})
		out = append(out, it)
	}
	return out, nil
}

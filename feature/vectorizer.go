package feature

import (
	"math"
	"strings"

	"github.com/rushteam/melorank/core"
)

// 特征 key 的命名空间前缀
const (
	PrefixGenre      = "genre:"
	PrefixSpeed      = "speed:"
	PrefixTag        = "tag:"
	PrefixInstrument = "instrument:"
)

// DefaultDelimiter 是自由文本标签的默认分隔符
const DefaultDelimiter = ","

// Vectorizer 把歌曲的类别特征编码为稀疏指示向量（类似 One-Hot，但只保留命中的维度）。
//
// 编码规则：
//   - 每个流派：genre:<name> = 1
//   - 速度分档：speed:<bucket> = 1
//   - 情绪/风格标签：按 Delimiter 切分、去空白、小写、去重后 tag:<token> = 1
//   - 乐器标签：同上，instrument:<token> = 1
//
// 空白字段不产生任何 key，也不会报错。纯函数，无 I/O。
type Vectorizer struct {
	// Delimiter 自由文本标签的分隔符，为空时使用 DefaultDelimiter
	Delimiter string
}

// NewVectorizer 创建向量化器
func NewVectorizer(delimiter string) *Vectorizer {
	return &Vectorizer{Delimiter: delimiter}
}

// Vectorize 生成歌曲的特征向量；song 为空时返回空向量
func (v *Vectorizer) Vectorize(song *core.SongFeatures) core.FeatureVector {
	vec := make(core.FeatureVector)
	if song == nil {
		return vec
	}

	for _, g := range song.Genres {
		putToken(vec, PrefixGenre, g)
	}
	putToken(vec, PrefixSpeed, song.Speed)
	for _, tok := range v.split(song.MoodTags) {
		putToken(vec, PrefixTag, tok)
	}
	for _, tok := range v.split(song.InstrumentTags) {
		putToken(vec, PrefixInstrument, tok)
	}
	return vec
}

func (v *Vectorizer) split(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	delim := v.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	return strings.Split(raw, delim)
}

// putToken 规范化 token 并以单位权重写入；重复写入同一个 key 不会累加
func putToken(vec core.FeatureVector, prefix, raw string) {
	tok := strings.ToLower(strings.TrimSpace(raw))
	if tok == "" {
		return
	}
	vec[prefix+tok] = 1.0
}

// Normalize 返回 L2 归一化后的新向量，需要 [0,1] 余弦分数的调用方在打分前自行调用。
// 空向量或零向量原样返回空向量。
func Normalize(vec core.FeatureVector) core.FeatureVector {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	out := make(core.FeatureVector, len(vec))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for k, w := range vec {
		out[k] = w / norm
	}
	return out
}

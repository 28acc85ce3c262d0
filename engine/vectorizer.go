package engine

import (
	"math"
	"sort"

	"github.com/rushteam/bookrec/pkg/textutil"
	"gonum.org/v1/gonum/floats"
)

// Vectorizer 把书目文本转换为定长的 TF-IDF 特征向量。
//
//   - 分词：小写、至少两个单词字符、去英文停用词
//   - 词表：按全语料词频取前 MaxFeatures 个词，词频相同按字典序；列按字典序排列
//   - 权重：tf(原始计数) × idf，idf = ln((1+N)/(1+df)) + 1，每行再做 L2 归一化
//
// 每篇文档都出现的词 idf 最小，只出现在少数文档的词 idf 更大。
type Vectorizer struct {
	MaxFeatures int

	vocabulary []string
	index      map[string]int
	idf        []float64
}

// NewVectorizer 创建 Vectorizer；maxFeatures <= 0 时使用默认值 100。
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 100
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Vocabulary 返回拟合后的词表（列顺序）。
func (v *Vectorizer) Vocabulary() []string {
	return v.vocabulary
}

// FitTransform 基于 docs 拟合词表与 idf，并返回每篇文档的特征向量，顺序与 docs 一致。
// 去停用词后为空的文档得到全零向量。
func (v *Vectorizer) FitTransform(docs []string) [][]float64 {
	tokens := make([][]string, len(docs))
	termCount := make(map[string]int)
	docFreq := make(map[string]int)
	for i, doc := range docs {
		tokens[i] = textutil.Tokenize(doc)
		seen := make(map[string]struct{}, len(tokens[i]))
		for _, tok := range tokens[i] {
			termCount[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	v.fitVocabulary(termCount)

	n := float64(len(docs))
	v.idf = make([]float64, len(v.vocabulary))
	for j, term := range v.vocabulary {
		v.idf[j] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	out := make([][]float64, len(docs))
	for i := range docs {
		out[i] = v.transform(tokens[i])
	}
	return out
}

func (v *Vectorizer) fitVocabulary(termCount map[string]int) {
	terms := make([]string, 0, len(termCount))
	for term := range termCount {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCount[terms[i]] != termCount[terms[j]] {
			return termCount[terms[i]] > termCount[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	v.vocabulary = terms
	v.index = make(map[string]int, len(terms))
	for j, term := range terms {
		v.index[term] = j
	}
}

func (v *Vectorizer) transform(tokens []string) []float64 {
	vec := make([]float64, len(v.vocabulary))
	for _, tok := range tokens {
		if j, ok := v.index[tok]; ok {
			vec[j]++
		}
	}
	floats.Mul(vec, v.idf)
	if l := floats.Norm(vec, 2); l > 0 {
		floats.Scale(1/l, vec)
	}
	return vec
}

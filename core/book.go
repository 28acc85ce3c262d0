package core

// Book 是书目记录，由外部数据层维护（CRUD 不属于推荐引擎）。
type Book struct {
	ID            string  `json:"id" bson:"_id"`
	Title         string  `json:"title" bson:"title"`
	Author        string  `json:"author" bson:"author"`
	Genre         string  `json:"genre" bson:"genre"`
	Description   string  `json:"description,omitempty" bson:"description,omitempty"`
	Year          int     `json:"year" bson:"year"`
	AverageRating float64 `json:"rating" bson:"average_rating"`
}

// Text 返回用于内容特征抽取的文本：genre、author、description 以空格拼接。
// description 缺失时视为空串。
func (b *Book) Text() string {
	return b.Genre + " " + b.Author + " " + b.Description
}

// Rating 是一条用户评分（1-5 分）。
// 同一 (UserID, BookID) 至多一条，去重由数据层负责。
type Rating struct {
	UserID string `json:"user_id" bson:"user_id"`
	BookID string `json:"book_id" bson:"book_id"`
	Score  int    `json:"rating" bson:"rating"`
}

// SimilarBook 是 "more like this" 查询的单条结果，附带原始相似度。
type SimilarBook struct {
	Book
	Similarity float64 `json:"similarity"`
}

const (
	MinScore = 1
	MaxScore = 5
)

// ValidScore 判断评分是否在 1-5 之间。
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// AverageRating 计算评分均值，没有评分时返回 0。
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int
	for _, r := range ratings {
		sum += r.Score
	}
	return float64(sum) / float64(len(ratings))
}

// ScoredID 是带分数的书目 ID，召回源之间传递排序结果时使用。
type ScoredID struct {
	ID    string
	Score float64
}

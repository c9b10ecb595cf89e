package domain

// Sentiment is the mapped label assigned to a single review.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Sentiments lists the labels in display order.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

type Review struct {
	Author         string    `json:"author"`
	Rating         *float64  `json:"rating"`
	Date           string    `json:"date"`
	Text           string    `json:"text"`
	CleanText      string    `json:"clean_text,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	SentimentScore float64   `json:"sentiment_score,omitempty"`
}

// Field is a bitset of the columns a Collection carries.
type Field uint8

const (
	FieldAuthor Field = 1 << iota
	FieldRating
	FieldDate
	FieldText
	FieldCleanText
	FieldSentiment
)

// FetchedFields are the columns every provider fetch yields, even when empty.
const FetchedFields = FieldAuthor | FieldRating | FieldDate | FieldText

func (f Field) Has(x Field) bool { return f&x == x }

// Names returns the column names present, in schema order.
func (f Field) Names() []string {
	names := []string{}
	for _, c := range []struct {
		f    Field
		name string
	}{
		{FieldAuthor, "author"},
		{FieldRating, "rating"},
		{FieldDate, "date"},
		{FieldText, "text"},
		{FieldCleanText, "clean_text"},
		{FieldSentiment, "sentiment"},
	} {
		if f.Has(c.f) {
			names = append(names, c.name)
		}
	}
	return names
}

// Collection is the ordered set of reviews for one business.
type Collection struct {
	Reviews []Review `json:"reviews"`
	Fields  Field    `json:"fields"`
}

func (c Collection) Len() int { return len(c.Reviews) }

// Head returns the first n reviews in existing order.
func (c Collection) Head(n int) []Review {
	if n < 0 || n >= len(c.Reviews) {
		return c.Reviews
	}
	return c.Reviews[:n]
}

// Clone copies the review slice so callers can augment it without aliasing.
func (c Collection) Clone() Collection {
	out := Collection{Fields: c.Fields}
	if n := len(c.Reviews); n > 0 {
		out.Reviews = make([]Review, n)
		copy(out.Reviews, c.Reviews)
	}
	return out
}

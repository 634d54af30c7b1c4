package catalogue

// DefaultImage is used when a new book arrives without a cover image.
const DefaultImage = "/images/default-book.jpg"

// TopRatedLimit caps the number of books returned by GetTopRatedBooks.
const TopRatedLimit = 10

// TopRatedCriteria describes the ranking key used for top-rated books.
const TopRatedCriteria = "Rating × Review Count (weighted rating)"

// Book represents a book entity.
type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Image         string     `json:"image"`
	ISBN          string     `json:"isbn"`
	Genre         StringList `json:"genre"`
	Tags          []string   `json:"tags"`
	DatePublished string     `json:"datePublished"`
	Pages         int        `json:"pages"`
	Language      string     `json:"language"`
	Publisher     string     `json:"publisher"`
	Rating        float64    `json:"rating"`
	ReviewCount   int        `json:"reviewCount"`
	InStock       bool       `json:"inStock"`
	Featured      bool       `json:"featured"`
}

// WeightedRating is the ranking key for top-rated queries. It is never persisted.
func (b Book) WeightedRating() float64 {
	return b.Rating * float64(b.ReviewCount)
}

// BookCollection is the full set of books held by a store.
type BookCollection []Book

// Find returns the index of the book with the given id, or -1.
func (c BookCollection) Find(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// RankedBook is a book annotated with its weighted rating.
type RankedBook struct {
	Book
	WeightedRating float64 `json:"weightedRating"`
}

// BookInput carries a client-supplied book before validation and coercion.
// Required fields are declared in the order they are reported when missing.
type BookInput struct {
	Title         Text       `json:"title" validate:"required"`
	Author        Text       `json:"author" validate:"required"`
	Description   Text       `json:"description" validate:"required"`
	Price         Text       `json:"price" validate:"required"`
	ISBN          Text       `json:"isbn" validate:"required"`
	Genre         StringList `json:"genre" validate:"required"`
	DatePublished Text       `json:"datePublished" validate:"required"`
	Pages         Text       `json:"pages" validate:"required"`
	Language      Text       `json:"language" validate:"required"`
	Publisher     Text       `json:"publisher" validate:"required"`

	Image       Text     `json:"image"`
	Tags        []string `json:"tags"`
	Rating      Text     `json:"rating"`
	ReviewCount Text     `json:"reviewCount"`
	InStock     *bool    `json:"inStock"`
	Featured    *bool    `json:"featured"`
}

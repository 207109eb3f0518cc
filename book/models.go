package book

import "time"

type Genre string

// Genres is the fixed set of genres a listing may carry.
var Genres = []Genre{
	"Action", "Adventure", "Biography", "Comedy", "Drama", "Fantasy",
	"Fiction", "History", "Horror", "Mystery", "Non-fiction", "Romance",
	"Science Fiction", "Self-help", "Thriller",
}

// IsValidGenre reports whether g is one of the accepted genres.
func IsValidGenre(g Genre) bool {
	for _, valid := range Genres {
		if g == valid {
			return true
		}
	}
	return false
}

// Book is the domain representation of a listing. Contact is copied from the
// owner's email at creation time and is not re-synced afterwards.
type Book struct {
	ID        string
	Title     string
	Genre     Genre
	City      string
	Contact   string
	ImageURL  string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Author is the credential-free view of a listing's owner attached to reads.
type Author struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Listing couples a book with its author's public profile.
type Listing struct {
	Book
	Author Author
}

// RoleOwner mirrors the identity component's owner role value.
const RoleOwner = "Owner"

// Actor identifies the authenticated caller for ownership decisions.
type Actor struct {
	ID    string
	Email string
	Role  string
}

// CreateParams contains the caller-supplied fields for a new listing.
type CreateParams struct {
	Title    string
	Genre    Genre
	City     string
	ImageURL string
}

// UpdateParams is a partial patch of a listing; nil fields keep prior values.
type UpdateParams struct {
	Title    *string
	Genre    *Genre
	City     *string
	ImageURL *string
}

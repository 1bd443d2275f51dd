package utils

import "github.com/gosimple/slug"

// Slugify turns a category name into its URL slug, e.g.
// "Other Frameworks" -> "other-frameworks".
func Slugify(name string) string {
	return slug.Make(name)
}

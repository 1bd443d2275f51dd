package models

const (
	PageTitleMaxLength = 128
	PageURLMaxLength   = 200
)

type Page struct {
	ID         int    `db:"id"`
	CategoryID int    `db:"category_id"`
	Title      string `db:"title"`
	URL        string `db:"url"`
	Views      int    `db:"views"`
}

func (p Page) String() string {
	return p.Title
}

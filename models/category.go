package models

const CategoryNameMaxLength = 128

type Category struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Slug  string `db:"slug"`
	Views int    `db:"views"`
	Likes int    `db:"likes"`
}

func (c Category) String() string {
	return c.Name
}

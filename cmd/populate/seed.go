package main

import (
	"context"
	"fmt"

	"rango/models"
)

type SeedPage struct {
	Title string
	URL   string
	Views int
}

type SeedCategory struct {
	Name  string
	Views int
	Likes int
	Pages []SeedPage
}

func SeedData() []SeedCategory {
	pythonPages := []SeedPage{
		{Title: "Official Python Tutorial", URL: "http://docs.python.org/3/tutorial/", Views: 90},
		{Title: "How to Think like a Computer Scientist", URL: "http://www.greenteapress.com/thinkpython/", Views: 17},
		{Title: "Learn Python in 10 Minutes", URL: "http://www.korokithakis.net/tutorials/python/", Views: 82},
	}

	djangoPages := []SeedPage{
		{Title: "Official Django Tutorial", URL: "https://docs.djangoproject.com/en/2.1/intro/tutorial01/", Views: 63},
		{Title: "Django Rocks", URL: "http://www.djangorocks.com/", Views: 20},
		{Title: "How to Tango with Django", URL: "http://www.tangowithdjango.com/", Views: 43},
	}

	otherPages := []SeedPage{
		{Title: "Bottle", URL: "http://bottlepy.org/docs/dev/", Views: 9},
		{Title: "Flask", URL: "http://flask.pocoo.org", Views: 12},
	}

	// To add more categories or pages, add to the lists above
	return []SeedCategory{
		{Name: "Python", Views: 128, Likes: 64, Pages: pythonPages},
		{Name: "Django", Views: 64, Likes: 32, Pages: djangoPages},
		{Name: "Other Frameworks", Views: 32, Likes: 16, Pages: otherPages},
	}
}

type seedStore interface {
	GetOrCreateCategory(ctx context.Context, name string, views, likes int) (*models.Category, error)
	GetOrCreatePage(ctx context.Context, categoryID int, title, url string, views int) (*models.Page, error)
}

// populate adds each category, then all of its pages. Running it twice
// leaves the same rows behind.
func populate(ctx context.Context, store seedStore, seed []SeedCategory) error {
	for _, sc := range seed {
		c, err := store.GetOrCreateCategory(ctx, sc.Name, sc.Views, sc.Likes)
		if err != nil {
			return fmt.Errorf("add category %q: %w", sc.Name, err)
		}
		for _, sp := range sc.Pages {
			if _, err := store.GetOrCreatePage(ctx, c.ID, sp.Title, sp.URL, sp.Views); err != nil {
				return fmt.Errorf("add page %q: %w", sp.Title, err)
			}
		}
	}
	return nil
}

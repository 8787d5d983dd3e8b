package identity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Room is one selectable room in the catalog.
type Room struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Category groups related rooms for display.
type Category struct {
	Name  string `yaml:"name"`
	Rooms []Room `yaml:"rooms"`
}

// Catalog is the room picker's data: categories of named rooms. Any room
// code outside the catalog is still joinable as a custom room.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// Rooms flattens the catalog into a single list in display order.
func (c *Catalog) Rooms() []Room {
	var rooms []Room
	for _, cat := range c.Categories {
		rooms = append(rooms, cat.Rooms...)
	}
	return rooms
}

// LoadCatalog reads a catalog from a yaml file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms file: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse rooms file: %w", err)
	}
	return &catalog, nil
}

// DefaultCatalog returns the built-in room list used when no rooms file is
// configured.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name: "General & Social",
				Rooms: []Room{
					{Name: "General Chat", Code: "-1001"},
					{Name: "World Chat", Code: "-1002"},
					{Name: "Chill Chat", Code: "-1003"},
					{Name: "Fun Zone", Code: "-1004"},
				},
			},
			{
				Name: "Relationships & People",
				Rooms: []Room{
					{Name: "Singles Chat", Code: "-2001"},
					{Name: "Teen Chat", Code: "-2002"},
					{Name: "College Chat", Code: "-2003"},
				},
			},
			{
				Name: "Interests & Hobbies",
				Rooms: []Room{
					{Name: "Music Chat", Code: "-3001"},
					{Name: "Study Chat", Code: "-3002"},
					{Name: "Movies & TV", Code: "-3003"},
				},
			},
		},
	}
}

package birdtracker_test

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/birdtracker/birdtracker"
)

// ExampleNew builds a project holding one new raw illustration.
func ExampleNew() {
	root, err := os.MkdirTemp("", "birdtracker-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	// A catalog with a single owl and its raw drawing.
	if err := os.MkdirAll(filepath.Join(root, "public"), 0755); err != nil {
		log.Fatal(err)
	}
	catalog := `{"Owls": [{"id": "001", "name": "Barn Owl", "sci": "Tyto alba"}]}`
	if err := os.WriteFile(filepath.Join(root, "public", "birds.json"), []byte(catalog), 0644); err != nil {
		log.Fatal(err)
	}
	if err := writeBlankPNG(filepath.Join(root, "raw_png", "001.png")); err != nil {
		log.Fatal(err)
	}

	project, err := birdtracker.New(root,
		birdtracker.WithClock(func() time.Time { return time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		log.Fatal(err)
	}

	result, err := project.Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	for _, p := range result.Processed {
		fmt.Printf("added %s (%s)\n", p.Name, p.BaseName)
	}
	fmt.Println("version:", result.Version)
	fmt.Println("in sync:", result.Integrity.Passed())
	// Output:
	// added Barn Owl (001)
	// version: 0.7.1+1
	// in sync: true
}

func ExampleFindRoot() {
	root, err := os.MkdirTemp("", "birdtracker-root-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(root)

	nested := filepath.Join(root, "raw_png", "sketches")
	if err := os.MkdirAll(nested, 0755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "birdtracker.yaml"), nil, 0644); err != nil {
		log.Fatal(err)
	}

	found, err := birdtracker.FindRoot(nested)
	if err != nil {
		log.Fatal(err)
	}
	resolved, _ := filepath.EvalSymlinks(root)
	foundResolved, _ := filepath.EvalSymlinks(found)
	fmt.Println(foundResolved == resolved)
	// Output: true
}

func writeBlankPNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 32, 24)))
}

package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// promptSource asks for a file or directory when none was given.
func promptSource() (file, dir string, err error) {
	kind := "dir"
	path := "."
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What do you want to browse?").
				Options(
					huh.NewOption("A directory", "dir"),
					huh.NewOption("A JSON or YAML tree file", "file"),
				).
				Value(&kind),
			huh.NewInput().
				Title("Path").
				Value(&path).
				Validate(validatePath),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return "", "", err
	}
	path = strings.TrimSpace(path)
	if kind == "file" {
		return path, "", nil
	}
	return "", path, nil
}

func validatePath(p string) error {
	p = strings.TrimSpace(p)
	if p == "" {
		return errors.New("path is required")
	}
	if _, err := os.Stat(p); err != nil {
		return errors.New("no such file or directory")
	}
	return nil
}

// profileconv converts camera_follow.ini profiles to YAML. Every key is
// written, so the output also documents the effective defaults.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/novaengine/nova/internal/camera"
)

type profileDoc struct {
	Name   string        `yaml:"name"`
	Config camera.Config `yaml:"config"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: profileconv <camera_follow.ini> <output.yaml>")
		os.Exit(1)
	}

	profiles, err := camera.ParseProfilesFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 依名稱排序，輸出穩定
	var docs []profileDoc
	for _, name := range camera.ProfileNames(profiles) {
		docs = append(docs, profileDoc{Name: name, Config: profiles[name]})
	}

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "# Camera profiles, generated from %s (%d profiles)\n", os.Args[1], len(docs))
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]profileDoc{"profiles": docs}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := enc.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d camera profiles to %s\n", len(docs), os.Args[2])
}
